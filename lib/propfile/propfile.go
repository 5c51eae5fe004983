package propfile

import (
	"bufio"
	"errors"
	"fmt"
	"github.com/ValentinKolb/propdb/lib/prop"
	"github.com/lni/dragonboat/v4/logger"
	"io"
	"strings"
)

var plog = logger.GetLogger("propfile")

// --------------------------------------------------------------------------
// Block format
// --------------------------------------------------------------------------

// Sentinel lines delimiting a property block. A block is scan-detectable:
// it starts at a BlockStart line and ends at the first BlockEnd line, so it
// can be copied without being parsed.
const (
	BlockStart = "*Props*"
	BlockEnd   = "*End*"
)

// Type tag letters of a record. blessedSuffix follows the letter of
// blessed properties.
const (
	tagString     = 's'
	tagInt        = 'i'
	tagFloat      = 'f'
	tagRef        = 'r'
	tagLock       = 'l'
	blessedSuffix = 'B'
)

var (
	// ErrNotResident is returned when writing a tree that still has values
	// or subdirectories in the backing file
	ErrNotResident = errors.New("property tree is not fully loaded")
	// ErrUnsafeRecord is returned for a name or value text that would not
	// read back as the same single record
	ErrUnsafeRecord = errors.New("property cannot be written as one record")
)

func tagOf(t prop.Type) (byte, bool) {
	switch t {
	case prop.TypeString:
		return tagString, true
	case prop.TypeInt:
		return tagInt, true
	case prop.TypeFloat:
		return tagFloat, true
	case prop.TypeRef:
		return tagRef, true
	case prop.TypeLock:
		return tagLock, true
	default:
		return 0, false
	}
}

func typeOf(tag byte) (prop.Type, bool) {
	switch tag {
	case tagString:
		return prop.TypeString, true
	case tagInt:
		return prop.TypeInt, true
	case tagFloat:
		return prop.TypeFloat, true
	case tagRef:
		return prop.TypeRef, true
	case tagLock:
		return prop.TypeLock, true
	default:
		return prop.TypeNone, false
	}
}

// escape makes a string payload safe for a single line
func escape(s string) string {
	if !strings.ContainsAny(s, "\\\n") {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

func unescape(s string) (string, error) {
	if strings.IndexByte(s, '\\') < 0 {
		return s, nil
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' {
			b.WriteByte(s[i])
			continue
		}
		i++
		if i == len(s) {
			return "", fmt.Errorf("dangling escape")
		}
		switch s[i] {
		case '\\':
			b.WriteByte('\\')
		case 'n':
			b.WriteByte('\n')
		default:
			return "", fmt.Errorf("unknown escape \\%c", s[i])
		}
	}
	return b.String(), nil
}

// --------------------------------------------------------------------------
// Writing
// --------------------------------------------------------------------------

// WriteProperties serializes tree as one block and returns the number of
// bytes written. Every leaf is written with its full path; directories are
// implied by the paths. A node's record precedes the records of its
// subdirectory, so every subtree occupies a contiguous byte range.
func WriteProperties(w io.Writer, tree *prop.Tree) (int64, error) {
	bw := bufio.NewWriter(w)
	var n int64

	write := func(s string) error {
		k, err := bw.WriteString(s)
		n += int64(k)
		return err
	}

	if err := write(BlockStart + "\n"); err != nil {
		return n, err
	}

	err := tree.Walk("/", func(path string, node *prop.Node) error {
		if node.Flags().Has(prop.FlagUnloaded) || node.Flags().Has(prop.FlagDirUnloaded) {
			return fmt.Errorf("%w: %s", ErrNotResident, path)
		}
		tag, ok := tagOf(node.Type())
		if !ok {
			return nil // pure directory
		}
		if strings.ContainsAny(path, ":\r\n") {
			return fmt.Errorf("%w: name %q", ErrUnsafeRecord, path)
		}
		v := node.Value()
		text := v.Format()
		if v.Type() == prop.TypeString {
			text = escape(text)
		} else if strings.ContainsAny(text, "\r\n") {
			return fmt.Errorf("%w: %s value of %s", ErrUnsafeRecord, v.Type(), path)
		}

		var b strings.Builder
		b.WriteString(path)
		b.WriteByte(':')
		b.WriteByte(tag)
		if node.Flags().Has(prop.FlagBlessed) {
			b.WriteByte(blessedSuffix)
		}
		b.WriteByte(':')
		b.WriteString(text)
		b.WriteByte('\n')
		return write(b.String())
	})
	if err != nil {
		return n, err
	}

	if err := write(BlockEnd + "\n"); err != nil {
		return n, err
	}
	return n, bw.Flush()
}

// --------------------------------------------------------------------------
// Reading
// --------------------------------------------------------------------------

// LoadOptions controls how records are turned into nodes
type LoadOptions struct {
	// LazyDirs only loads the directory level that is requested; deeper
	// levels are marked FlagDirUnloaded.
	LazyDirs bool
	// LazyValues leaves string and lock values in the file (FlagUnloaded)
	LazyValues bool
	// LockParser compiles lock values. Without it lock records are rejected
	// unless they are loaded lazily.
	LockParser prop.LockParser
}

// record is one parsed property line
type record struct {
	path     string
	segs     []string
	typ      prop.Type
	blessed  bool
	value    string
	start    int64
	valuePos int64
}

func parseRecord(line string, start int64) (*record, error) {
	if len(line) == 0 || line[0] != prop.Delimiter {
		return nil, corrupt(start, nil, "record does not start with a path: %q", line)
	}
	i := strings.IndexByte(line, ':')
	if i < 0 || i+2 > len(line) {
		return nil, corrupt(start, nil, "record without type tag: %q", line)
	}
	path := line[:i]
	rest := line[i+1:]
	j := strings.IndexByte(rest, ':')
	if j < 1 || j > 2 {
		return nil, corrupt(start, nil, "malformed type tag: %q", line)
	}
	typ, ok := typeOf(rest[0])
	if !ok {
		return nil, corrupt(start, nil, "unknown type tag %q", rest[0])
	}
	blessed := false
	if j == 2 {
		if rest[1] != blessedSuffix {
			return nil, corrupt(start, nil, "malformed type tag: %q", line)
		}
		blessed = true
	}
	segs := prop.Split(path)
	if len(segs) == 0 {
		return nil, corrupt(start, nil, "record with an empty path")
	}
	return &record{
		path:     path,
		segs:     segs,
		typ:      typ,
		blessed:  blessed,
		value:    rest[j+1:],
		start:    start,
		valuePos: start + int64(i+1+j+1),
	}, nil
}

// decodeValue turns the text of a record into a value
func decodeValue(t prop.Type, text string, parser prop.LockParser) (prop.Value, error) {
	if t == prop.TypeString {
		s, err := unescape(text)
		if err != nil {
			return prop.Value{}, err
		}
		return prop.String(s), nil
	}
	return prop.ParseValue(t, text, parser)
}

// LoadProperties reads one block, starting at its BlockStart line, into
// tree. With opts.LazyDirs only the top level is loaded.
func LoadProperties(r *Reader, tree *prop.Tree, opts LoadOptions) error {
	if err := r.expectLine(BlockStart); err != nil {
		return err
	}
	return loadRecords(r, tree, "/", opts, true)
}

// LoadDir reads the records of the subdirectory dir into tree. r must be
// positioned at the first record of the subdirectory, which is the offset
// recorded for a FlagDirUnloaded node. Reading stops at the first record
// outside dir or at the end of the block.
func LoadDir(r *Reader, tree *prop.Tree, dir string, opts LoadOptions) error {
	return loadRecords(r, tree, dir, opts, false)
}

func loadRecords(r *Reader, tree *prop.Tree, dir string, opts LoadOptions, wholeBlock bool) error {
	base := prop.Split(dir)
	count := 0

	for {
		line, start, err := r.ReadLine()
		if err != nil {
			return corrupt(start, err, "unterminated property block")
		}
		if line == BlockEnd {
			break
		}
		rec, err := parseRecord(line, start)
		if err != nil {
			return err
		}
		if !under(rec.segs, base) {
			if wholeBlock {
				return corrupt(start, nil, "record %s outside of %s", rec.path, dir)
			}
			break
		}
		if err := loadRecord(tree, base, rec, opts); err != nil {
			return corrupt(start, err, "bad value for %s", rec.path)
		}
		count++
	}

	plog.Debugf("loaded %d records below %s (lazy dirs=%v, lazy values=%v)", count, dir, opts.LazyDirs, opts.LazyValues)
	return nil
}

// under reports whether segs lies strictly below base
func under(segs, base []string) bool {
	if len(segs) <= len(base) {
		return false
	}
	for i := range base {
		if !prop.SameName(segs[i], base[i]) {
			return false
		}
	}
	return true
}

func loadRecord(tree *prop.Tree, base []string, rec *record, opts LoadOptions) error {
	depth := len(rec.segs) - len(base)

	if opts.LazyDirs && depth > 1 {
		// deeper levels stay in the file until they are requested
		child := tree.Create(prop.Join(rec.segs[:len(base)+1]...))
		if _, unloaded := child.DirPos(); !unloaded {
			child.MarkDirUnloaded(rec.start)
		}
		return nil
	}

	node := tree.Create(rec.path)
	if opts.LazyValues && (rec.typ == prop.TypeString || rec.typ == prop.TypeLock) {
		node.MarkUnloaded(rec.typ, rec.valuePos)
	} else {
		v, err := decodeValue(rec.typ, rec.value, opts.LockParser)
		if err != nil {
			return err
		}
		node.SetValue(v)
	}
	if rec.blessed {
		node.SetFlags(node.Flags().Set(prop.FlagBlessed))
	}
	return nil
}

// ReadValueAt reads the value of type t whose text starts at offset pos of
// ra. It resolves values left in the file by a lazy load.
func ReadValueAt(ra io.ReaderAt, pos int64, t prop.Type, parser prop.LockParser) (prop.Value, error) {
	r := NewReaderAt(ra, pos)
	line, _, err := r.ReadLine()
	if err != nil {
		return prop.Value{}, corrupt(pos, err, "truncated value")
	}
	v, err := decodeValue(t, line, parser)
	if err != nil {
		return prop.Value{}, corrupt(pos, err, "bad %s value", t)
	}
	return v, nil
}

// --------------------------------------------------------------------------
// Raw passthrough
// --------------------------------------------------------------------------

// CopyBlock copies the block starting at offset pos of src to dst byte for
// byte, without parsing its records, and returns the number of bytes
// written.
func CopyBlock(dst io.Writer, src io.ReaderAt, pos int64) (int64, error) {
	r := NewReaderAt(src, pos)
	if err := r.expectLine(BlockStart); err != nil {
		return 0, err
	}
	for {
		line, start, err := r.ReadLine()
		if err != nil {
			return 0, corrupt(start, err, "unterminated property block")
		}
		if line == BlockEnd {
			break
		}
	}
	n, err := io.Copy(dst, io.NewSectionReader(src, pos, r.Pos()-pos))
	return n, err
}

// SkipBlock advances r past one block without building any nodes
func SkipBlock(r *Reader) error {
	if err := r.expectLine(BlockStart); err != nil {
		return err
	}
	for {
		line, start, err := r.ReadLine()
		if err != nil {
			return corrupt(start, err, "unterminated property block")
		}
		if line == BlockEnd {
			return nil
		}
	}
}
