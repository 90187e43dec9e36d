package config

// OrderedBuildFiles returns the source files in compile order: each file is
// preceded by its direct dependencies, in the order they were declared.
// Only one level of dependencies is followed and every path appears once.
func (c *Config) OrderedBuildFiles() []string {
	seen := make(map[string]bool, len(c.files))
	order := make([]string, 0, len(c.files))
	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			order = append(order, path)
		}
	}
	for _, file := range c.files {
		for _, dep := range c.dependencies[file] {
			add(dep)
		}
		add(file)
	}
	return order
}
