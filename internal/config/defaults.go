package config

// DefaultValues returns the default config map for keys that have one.
func DefaultValues() map[string]string {
	return map[string]string{
		KeyGitHubAutoLabels:  "true",
		KeyGitHubLabelPrefix: "bugbook:",
		KeyLogLevel:          "warn",
	}
}

// ApplyDefaults fills any missing keys in s with their default values,
// in memory only, so the user's file is never rewritten just to hold
// defaults.
func ApplyDefaults(s Store) {
	all := s.All()
	for k, v := range DefaultValues() {
		if _, exists := all[k]; !exists {
			s.SetInMemory(k, v)
		}
	}
}
