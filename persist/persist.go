// Package persist loads and saves the per-master device-to-slave
// mapping that lets MPX master splits survive a restart (§6.4).
package persist

import (
	"bufio"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jezek/xgb/xproto"

	"github.com/patrislav/marwind/entity"
)

// ExpandHome replaces a leading "~" in path with the current user's
// home directory, matching the original's tolerance for a bare "~/..."
// state path in config.
func ExpandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	u, err := user.Current()
	if err != nil {
		return path
	}
	return filepath.Join(u.HomeDir, strings.TrimPrefix(path, "~"))
}

// block is one master's record: its own line plus the slave names
// attached to it.
type block struct {
	name       string
	parentName string
	focusColor uint32
	slaves     []string
}

// Save writes the registry's current master/slave attachment to path.
// An empty path disables persistence (silent no-op).
func Save(reg *entity.Registry, path string) error {
	if path == "" {
		return nil
	}
	path = ExpandHome(path)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("persist: creating state file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	masters := reg.Masters()
	for i, m := range masters {
		// Master lineage (which master an MPX split came from) isn't
		// tracked by entity.Master; "-" means "no parent" on reload.
		fmt.Fprintf(w, "%s\n", m.Name)
		fmt.Fprintf(w, "-\n")
		fmt.Fprintf(w, "%06x\n", m.FocusColor)
		for _, s := range reg.SlavesOf(m.ID) {
			if s.IsTest {
				continue
			}
			fmt.Fprintf(w, "%s\n", s.Name)
		}
		if i < len(masters)-1 {
			fmt.Fprintln(w)
		}
	}
	return w.Flush()
}

// Load reads path and re-creates masters/slave attachments into reg by
// name. A missing or empty path is a silent no-op, matching the
// original's tolerance of no state file on first run. Masters already
// present by name are left alone; only slave attachment is applied for
// them.
func Load(reg *entity.Registry, path string, nextDeviceID func() xproto.Window) error {
	if path == "" {
		return nil
	}
	path = ExpandHome(path)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("persist: reading state file: %w", err)
	}

	blocks := parseBlocks(string(data))
	for _, b := range blocks {
		m, ok := reg.MasterByName(b.name)
		if !ok {
			kbdID := nextDeviceID()
			ptrID := nextDeviceID()
			m = entity.NewMaster(kbdID, ptrID, b.name, b.focusColor)
			if err := reg.InsertMaster(m); err != nil {
				continue
			}
		}
		for _, slaveName := range b.slaves {
			if s, ok := findSlaveByName(reg, slaveName); ok {
				s.Master = m.ID
			}
		}
	}
	return nil
}

func findSlaveByName(reg *entity.Registry, name string) (*entity.Slave, bool) {
	for _, s := range reg.Slaves(false) {
		if s.Name == name {
			return s, true
		}
	}
	return nil, false
}

// parseBlocks parses the newline format: per master, a name line, a
// parent-name line ("-" for none), a hex focus-color line, then zero or
// more slave-name lines, blocks separated by a blank line.
func parseBlocks(data string) []block {
	var blocks []block
	lineNo := 0
	var cur *block
	for _, line := range strings.Split(data, "\n") {
		if line == "" {
			cur = nil
			lineNo = 0
			continue
		}
		if cur == nil {
			blocks = append(blocks, block{})
			cur = &blocks[len(blocks)-1]
		}
		switch lineNo {
		case 0:
			cur.name = line
		case 1:
			cur.parentName = line
		case 2:
			if v, err := strconv.ParseUint(line, 16, 32); err == nil {
				cur.focusColor = uint32(v)
			}
		default:
			cur.slaves = append(cur.slaves, line)
		}
		lineNo++
	}
	return blocks
}
