package memohook

func withProtector(fn func(addr, size uintptr) error) Option {
	return func(c *Config) {
		c.protect = fn
	}
}

func noProtect(addr, size uintptr) error {
	return nil
}
