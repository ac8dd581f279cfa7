package config

// Reconfile represents the structure of the recon.yaml configuration file.
type Reconfile struct {
	Version       string         `yaml:"version"`
	Revision      string         `yaml:"revision"`
	Directives    map[string]any `yaml:"directives"`
	SearchPath    []string       `yaml:"search_path"`
	LibDir        string         `yaml:"lib_dir"`
	NativeCommand []string       `yaml:"native_command"`
}
