package types

type ConfigEntry struct {
	Key   string
	Value string
}

// ConfigRecord is the ordered content of the persistent configuration
// file. Values are kept in their rendered form (quotes included).
type ConfigRecord struct {
	Entries []ConfigEntry
}

func (r ConfigRecord) Get(key string) (string, bool) {
	for _, entry := range r.Entries {
		if entry.Key == key {
			return entry.Value, true
		}
	}
	return "", false
}

type EnvVar struct {
	Key   string
	Value string
}

// EnvChangeSet is what activation asks the caller to apply to the shell.
type EnvChangeSet struct {
	Path        string
	PathChanged bool
	AddedPath   []string
	Vars        []EnvVar
}

func (c EnvChangeSet) Empty() bool {
	return !c.PathChanged && len(c.Vars) == 0
}
