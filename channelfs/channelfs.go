// Package channelfs is the channel substrate adapter (spec.md §6): it turns
// the "channels/" and "output/" directories into a small set of operations
// (append, tail-read-from-offset, directory scan) over an afero.Fs, so the
// layers above never touch *os* directly. Production wires afero.NewOsFs();
// tests wire afero.NewMemMapFs(), matching this repo's ambient filesystem
// boundary (see SPEC_FULL.md, DESIGN.md).
package channelfs

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"meshnet/wire"
)

// Adapter is the filesystem boundary for one node: it knows where the
// channels and output directories live and how channel filenames encode
// link identity (spec.md §6).
type Adapter struct {
	Fs         afero.Fs
	ChannelDir string
	OutputDir  string
}

// NewAdapter returns an Adapter rooted at the given directories.
func NewAdapter(fs afero.Fs, channelDir, outputDir string) Adapter {
	return Adapter{Fs: fs, ChannelDir: channelDir, OutputDir: outputDir}
}

// EnsureDirs creates the channel and output directories if absent, per
// spec.md §6.
func (a Adapter) EnsureDirs() error {
	if err := a.Fs.MkdirAll(a.ChannelDir, 0o755); err != nil {
		return fmt.Errorf("channelfs: create channel dir: %w", err)
	}
	if err := a.Fs.MkdirAll(a.OutputDir, 0o755); err != nil {
		return fmt.Errorf("channelfs: create output dir: %w", err)
	}
	return nil
}

// channelName returns the filename encoding a from->to link, per spec.md §6.
func channelName(from, to wire.NodeID) string {
	return fmt.Sprintf("from%dto%d.txt", from, to)
}

// ChannelRef identifies one channel file discovered under the channel
// directory.
type ChannelRef struct {
	From, To wire.NodeID
	Name     string
}

// parseChannelName decodes a channel filename into its (from, to) link
// identity. The filename is the sole encoding of link identity
// (spec.md §6): byte-position lookup of the two digits gives (sender,
// receiver).
func parseChannelName(name string) (from, to wire.NodeID, ok bool) {
	const prefix, suffix = "from", "to"
	if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ".txt") {
		return 0, 0, false
	}
	body := strings.TrimSuffix(strings.TrimPrefix(name, prefix), ".txt")
	mid := strings.Index(body, suffix)
	if mid <= 0 {
		return 0, 0, false
	}
	fromDigits, toDigits := body[:mid], body[mid+len(suffix):]
	if len(fromDigits) != 1 || len(toDigits) != 1 {
		return 0, 0, false
	}
	f, err := wire.ParseNodeID(fromDigits[0])
	if err != nil {
		return 0, 0, false
	}
	t, err := wire.ParseNodeID(toDigits[0])
	if err != nil {
		return 0, 0, false
	}
	return f, t, true
}

// AppendFrame appends a single encoded frame to the outbound channel from
// self to neighbor, creating the file if absent. Spec.md §5: exactly one
// writer per channel, writes are append-only, so no locking is needed.
func (a Adapter) AppendFrame(self, neighbor wire.NodeID, frame []byte) error {
	path := a.ChannelDir + "/" + channelName(self, neighbor)
	f, err := a.Fs.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("channelfs: open %s: %w", path, err)
	}
	defer f.Close()
	_, err = f.Write(frame)
	return err
}

// ReadFrom reads every byte available in the channel named name beyond
// offset. A short read (the trailing bytes of a partially-written frame)
// is not an error: the partial bytes are returned with the rest, and callers
// advance their bookmark by len(data) and hold the incomplete frame in
// memory until the remainder arrives.
func (a Adapter) ReadFrom(name string, offset int64) (data []byte, err error) {
	path := a.ChannelDir + "/" + name
	f, err := a.Fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("channelfs: open %s: %w", path, err)
	}
	defer f.Close()
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return nil, fmt.Errorf("channelfs: seek %s: %w", path, err)
	}
	data, err = io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("channelfs: read %s: %w", path, err)
	}
	return data, nil
}

// DiscoverInbound lists every channel file under ChannelDir whose decoded
// destination is self, per spec.md §4.1's channel-discovery rule. Results
// are sorted by name for deterministic iteration order.
func (a Adapter) DiscoverInbound(self wire.NodeID) ([]ChannelRef, error) {
	entries, err := afero.ReadDir(a.Fs, a.ChannelDir)
	if err != nil {
		return nil, fmt.Errorf("channelfs: list %s: %w", a.ChannelDir, err)
	}
	var out []ChannelRef
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		from, to, ok := parseChannelName(e.Name())
		if !ok || to != self {
			continue
		}
		out = append(out, ChannelRef{From: from, To: to, Name: e.Name()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// AppendOutputLine appends line to the node's output file
// (output/thenode<id>recieved.txt — misspelling intentional, spec.md §6).
func (a Adapter) AppendOutputLine(self wire.NodeID, line string) error {
	path := fmt.Sprintf("%s/thenode%drecieved.txt", a.OutputDir, self)
	f, err := a.Fs.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("channelfs: open %s: %w", path, err)
	}
	defer f.Close()
	_, err = f.WriteString(line)
	return err
}
