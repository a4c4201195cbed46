// Package devnode materializes and removes device special files.
//
// Flow for one insertion event:
//
//	classify (match) ──→ find-or-create family (registry)
//	        │
//	        ▼
//	scan free suffix slot ──→ render path from pattern
//	        │
//	        ▼
//	mknod under umask(0) ──→ group chown ──→ index symlink
//	        │
//	        ▼
//	record node in family ──→ commit suffix slot
//
// The suffix slot is committed only after every other step succeeded, so a
// set bit always has a registered node behind it. A failure partway leaves
// the scanned index unclaimed; any filesystem state already created is not
// rolled back.
//
// Removal locates nodes by minor number within the family and unlinks both
// the device path and the index symlink at
// <index root>/<block|char>/<major>/<minor>. The suffix slot of a removed
// node is not released: suffixes stay unique for the whole boot rather than
// being reused by later instances.
//
// All OS interaction goes through the System interface so the sequencing
// and error paths are testable without root.
package devnode
