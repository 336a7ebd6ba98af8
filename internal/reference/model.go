package reference

// EnumDirectory is one fixed list of codes, such as mineral types
type EnumDirectory struct {
	Name  string     `yaml:"name"`
	Items []EnumItem `yaml:"items"`
}

type EnumItem struct {
	Code  string `yaml:"code"`
	Name  string `yaml:"name"`
	Order int    `yaml:"order,omitempty"`
}
