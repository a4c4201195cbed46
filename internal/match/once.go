package match

// OnceRule describes a character device that hotplugs exactly once per boot
// and needs no family bookkeeping. Such nodes are created blindly on their
// first insertion event and never registered.
type OnceRule struct {
	// Path is absolute, not relative to the device root.
	Path  string
	Mode  uint32
	Major uint32
	Minor uint32
}

var onceRules = []OnceRule{
	{Path: "/dev/beep", Mode: 0o666, Major: 1, Minor: 10},
}

// ClassifyOnce looks up the create-once rule for a character device
// identity.
func ClassifyOnce(major, minor uint32) (*OnceRule, bool) {
	for i := range onceRules {
		if onceRules[i].Major == major && onceRules[i].Minor == minor {
			return &onceRules[i], true
		}
	}
	return nil, false
}
