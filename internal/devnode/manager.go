package devnode

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"

	"devmapperd/internal/match"
	"devmapperd/internal/registry"
	"devmapperd/internal/suffix"
)

var (
	// ErrAlreadyRegistered reports a duplicate registration for a device
	// path the family already tracks. The suffix slot scanned for the
	// duplicate is abandoned, not released; see package doc.
	ErrAlreadyRegistered = errors.New("devnode: device path already registered")
	// ErrNotRegistered reports removal of a device this process never
	// registered, typically because the daemon restarted and lost its
	// in-memory state.
	ErrNotRegistered = errors.New("devnode: device not registered")
	// ErrUnknownGroup reports that a rule's permission group does not
	// resolve in the group database. The match table and the group file are
	// expected to agree; this is a configuration fault, not a skippable
	// step.
	ErrUnknownGroup = errors.New("devnode: unknown permission group")
)

// Manager performs the filesystem side of device registration: node
// creation and removal under the device root, plus the index symlink tree
// under the index root.
type Manager struct {
	devRoot   string
	indexRoot string
	sys       System
	reg       *registry.Registry
}

// NewManager creates a manager writing nodes under devRoot and index
// symlinks under indexRoot.
func NewManager(devRoot, indexRoot string, sys System, reg *registry.Registry) *Manager {
	return &Manager{
		devRoot:   devRoot,
		indexRoot: indexRoot,
		sys:       sys,
		reg:       reg,
	}
}

// RegisterNewDevice materializes a node for an inserted device. Devices
// whose (node type, major) pair has no match rule are silently ignored.
//
// The suffix slot is committed last: if any step fails, the slot index is
// abandoned without being marked used. Filesystem state created before the
// failing step is left behind.
func (m *Manager) RegisterNewDevice(nodeType match.NodeType, major, minor uint32) error {
	rule, ok := match.Classify(nodeType, major)
	if !ok {
		return nil
	}

	family := m.reg.FindOrCreate(rule, nodeType, major)
	index, err := family.Suffixes.Allocate()
	if err != nil {
		return fmt.Errorf("family %s (major %d): %w", rule.Family, major, err)
	}

	path := m.renderPath(rule, index)
	if err := m.mknodUnmasked(path, nodeMode(rule.Mode, nodeType), major, minor); err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}

	if err := m.applyGroup(path, rule.PermissionGroup); err != nil {
		return err
	}

	link := m.indexLink(nodeType, major, minor)
	if err := m.sys.MkdirAll(filepath.Dir(link), 0o755); err != nil {
		return fmt.Errorf("creating index directory for %s: %w", link, err)
	}
	if err := m.sys.Symlink(path, link); err != nil {
		return fmt.Errorf("indexing %s: %w", path, err)
	}

	if err := family.AddNode(registry.Node{DevicePath: path, MinorNumber: minor}); err != nil {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, path)
	}
	family.Suffixes.Commit(index)
	return nil
}

// UnregisterDevice removes the node(s) registered for a removed device and
// its index symlink. Unmatched (node type, major) pairs are silently
// ignored; a matched device with no registered state fails with
// ErrNotRegistered.
//
// The node's suffix slot is intentionally not released: suffixes are unique
// per boot, so a re-inserted device gets the next free one.
func (m *Manager) UnregisterDevice(nodeType match.NodeType, major, minor uint32) error {
	if _, ok := match.Classify(nodeType, major); !ok {
		return nil
	}
	family := m.reg.Find(nodeType, major)
	if family == nil {
		return fmt.Errorf("%w: no family for %s major %d", ErrNotRegistered, nodeType, major)
	}

	for _, node := range family.NodesByMinor(minor) {
		if err := m.sys.Unlink(node.DevicePath); err != nil {
			return fmt.Errorf("removing %s: %w", node.DevicePath, err)
		}
	}

	link := m.indexLink(nodeType, major, minor)
	if err := m.sys.Unlink(link); err != nil {
		return fmt.Errorf("removing index %s: %w", link, err)
	}

	if !family.RemoveByMinor(minor) {
		return fmt.Errorf("%w: %s %d:%d", ErrNotRegistered, nodeType, major, minor)
	}
	return nil
}

// CreateOnceNode creates a pluggable-once character device node directly,
// with no family or index bookkeeping.
func (m *Manager) CreateOnceNode(rule *match.OnceRule) error {
	if err := m.mknodUnmasked(rule.Path, nodeMode(rule.Mode, match.Character), rule.Major, rule.Minor); err != nil {
		return fmt.Errorf("creating %s: %w", rule.Path, err)
	}
	return nil
}

// renderPath substitutes the allocated suffix into the rule's path pattern
// and anchors it under the device root.
func (m *Manager) renderPath(rule *match.Rule, index uint) string {
	rel := rule.PathPattern
	if strings.Contains(rel, match.DigitPattern) {
		rel = strings.ReplaceAll(rel, match.DigitPattern, suffix.Numeric(index))
	}
	if strings.Contains(rel, match.LetterPattern) {
		rel = strings.ReplaceAll(rel, match.LetterPattern, suffix.Letters(index))
	}
	return filepath.Join(m.devRoot, rel)
}

func (m *Manager) indexLink(nodeType match.NodeType, major, minor uint32) string {
	return filepath.Join(m.indexRoot, nodeType.String(),
		strconv.FormatUint(uint64(major), 10),
		strconv.FormatUint(uint64(minor), 10))
}

// mknodUnmasked creates the node with the file-creation mask cleared so the
// requested mode applies verbatim. The previous mask is restored on every
// path out.
func (m *Manager) mknodUnmasked(path string, mode uint32, major, minor uint32) error {
	old := m.sys.Umask(0)
	defer m.sys.Umask(old)
	return m.sys.Mknod(path, mode, unix.Mkdev(major, minor))
}

// applyGroup chowns the node to root:<group> when the rule names a
// permission group.
func (m *Manager) applyGroup(path, group string) error {
	if group == "" {
		return nil
	}
	gid, err := m.sys.LookupGroupID(group)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrUnknownGroup, group, err)
	}
	if err := m.sys.Chown(path, 0, gid); err != nil {
		return fmt.Errorf("chowning %s to group %s: %w", path, group, err)
	}
	return nil
}

func nodeMode(perm uint32, nodeType match.NodeType) uint32 {
	if nodeType == match.Block {
		return perm | unix.S_IFBLK
	}
	return perm | unix.S_IFCHR
}
