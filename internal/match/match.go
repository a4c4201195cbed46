// Package match holds the static tables describing which device identities
// the daemon recognizes and how their nodes are named and created.
package match

// NodeType distinguishes block and character device nodes. Together with a
// major number it identifies a device node family.
type NodeType int

// Device node types.
const (
	Block NodeType = iota
	Character
)

// String returns the directory name used for the node type in the
// device-node index tree.
func (t NodeType) String() string {
	if t == Block {
		return "block"
	}
	return "char"
}

// Placeholder tokens allowed in a rule's path pattern. A pattern carries at
// most one placeholder kind.
const (
	DigitPattern  = "%d"
	LetterPattern = "%c"
)

// Rule describes one recognized (node type, major number) device identity:
// how instances are named, which group owns them and with which mode the
// node is created.
type Rule struct {
	// PermissionGroup is the group that gets ownership of created nodes.
	// Empty means ownership is left as created.
	PermissionGroup string
	// Family is the human-readable family label.
	Family string
	// PathPattern is the node path relative to the device root, containing
	// at most one of "%d" or "%c".
	PathPattern string
	NodeType    NodeType
	Major       uint32
	// Mode is the permission bits the node is created with.
	Mode uint32
}

var rules = []Rule{
	{PermissionGroup: "audio", Family: "audio", PathPattern: "audio/%d", NodeType: Character, Major: 116, Mode: 0o220},
	{Family: "render", PathPattern: "gpu/render%d", NodeType: Character, Major: 28, Mode: 0o666},
	{PermissionGroup: "window", Family: "gpu-connector", PathPattern: "gpu/connector%d", NodeType: Character, Major: 226, Mode: 0o660},
	{Family: "virtio-console", PathPattern: "hvc0p%d", NodeType: Character, Major: 229, Mode: 0o666},
	{PermissionGroup: "phys", Family: "hid-mouse", PathPattern: "input/mouse/%d", NodeType: Character, Major: 10, Mode: 0o666},
	{PermissionGroup: "phys", Family: "hid-keyboard", PathPattern: "input/keyboard/%d", NodeType: Character, Major: 85, Mode: 0o666},
	{Family: "storage", PathPattern: "hd%c", NodeType: Block, Major: 3, Mode: 0o600},
	{PermissionGroup: "tty", Family: "console", PathPattern: "tty%d", NodeType: Character, Major: 35, Mode: 0o620},
	{PermissionGroup: "tty", Family: "console", PathPattern: "ttyS%d", NodeType: Character, Major: 4, Mode: 0o620},
}

// Classify looks up the rule for a (node type, major number) pair.
// It is a pure lookup; an unmatched pair means the device is not this
// daemon's concern.
func Classify(nodeType NodeType, major uint32) (*Rule, bool) {
	for i := range rules {
		if rules[i].Major == major && rules[i].NodeType == nodeType {
			return &rules[i], true
		}
	}
	return nil, false
}

// Rules returns the full match table, for exercising every entry in tests.
func Rules() []Rule {
	return rules
}
