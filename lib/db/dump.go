package db

import (
	"bufio"
	"fmt"
	"github.com/ValentinKolb/propdb/lib/prop"
	"github.com/ValentinKolb/propdb/lib/propfile"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

// Markers of the dump file framing. Every object is stored as
//
//	!<ref>
//	<name>
//	<type> <location> <owner>
//	*Props* ... *End*
const (
	dumpHeader  = "***propdb dump v1***"
	dumpTrailer = "***END OF DUMP***"
)

// badFormat wraps ErrBadFormat with the offset and a description
func badFormat(pos int64, format string, args ...any) error {
	return fmt.Errorf("%w at offset %d: %s", ErrBadFormat, pos, fmt.Sprintf(format, args...))
}

// --------------------------------------------------------------------------
// Loading
// --------------------------------------------------------------------------

// Open loads the database stored at path. With diskbase enabled only the
// object headers are read and the file stays open as the backing file of
// the cache; otherwise every property block is parsed and the file is
// closed again.
func Open(path string, opts Options) (*DB, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	d := New(opts)
	d.path = path
	if err := d.load(f); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}

	if d.cache != nil {
		d.cache.SetBacking(f)
		d.backing = f
	} else if err := f.Close(); err != nil {
		return nil, err
	}

	plog.Infof("loaded %d objects from %s (%s)", d.Len(), path, d.Info().DbType)
	return d, nil
}

// load reads a dump from the start of r
func (d *DB) load(r io.Reader) error {
	pr := propfile.NewReader(r, 0)

	line, start, err := pr.ReadLine()
	if err != nil || line != dumpHeader {
		return badFormat(start, "missing dump header")
	}

	loadOpts := propfile.LoadOptions{LockParser: d.opts.Cache.LockParser}

	for {
		line, start, err := pr.ReadLine()
		if err != nil {
			return badFormat(start, "unexpected end of dump: %v", err)
		}
		if line == dumpTrailer {
			return nil
		}
		if !strings.HasPrefix(line, "!") {
			return badFormat(start, "expected an object reference, got %q", line)
		}
		ref, err := prop.ParseDBRef(line[1:])
		if err != nil || ref < 0 {
			return badFormat(start, "bad object reference %q", line)
		}
		if _, dup := d.objects.Load(ref); dup {
			return badFormat(start, "duplicate object %s", ref)
		}

		obj, err := readObjectHeader(pr, ref)
		if err != nil {
			return err
		}
		d.objects.Store(ref, obj)
		if ref >= d.top {
			d.top = ref + 1
		}

		if d.cache != nil {
			d.cache.Track(ref, obj.props, pr.Pos())
			err = propfile.SkipBlock(pr)
		} else {
			err = propfile.LoadProperties(pr, obj.props, loadOpts)
		}
		if err != nil {
			return fmt.Errorf("properties of %s: %w", ref, err)
		}
	}
}

// readObjectHeader reads the name and the type line of an object
func readObjectHeader(pr *propfile.Reader, ref prop.DBRef) (*Object, error) {
	name, start, err := pr.ReadLine()
	if err != nil {
		return nil, badFormat(start, "missing name of %s", ref)
	}

	line, start, err := pr.ReadLine()
	if err != nil {
		return nil, badFormat(start, "missing type line of %s", ref)
	}
	fields := strings.Fields(line)
	if len(fields) != 3 {
		return nil, badFormat(start, "bad type line %q of %s", line, ref)
	}
	typ, err := ParseObjectType(fields[0])
	if err != nil {
		return nil, badFormat(start, "%v", err)
	}
	location, err := prop.ParseDBRef(fields[1])
	if err != nil {
		return nil, badFormat(start, "%v", err)
	}
	owner, err := prop.ParseDBRef(fields[2])
	if err != nil {
		return nil, badFormat(start, "%v", err)
	}

	return &Object{
		Ref:      ref,
		Name:     name,
		Type:     typ,
		Location: location,
		Owner:    owner,
		props:    prop.NewTree(),
	}, nil
}

// --------------------------------------------------------------------------
// Saving
// --------------------------------------------------------------------------

// countingWriter tracks the offset of the next byte written
type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// Save writes the database to path ("" = the file it was loaded from). The
// dump is written to a temporary file first and renamed into place. With
// diskbase the saved file becomes the new backing file: unloaded blocks are
// copied from the old one and every object is clean afterwards.
func (d *DB) Save(path string) error {
	if path == "" {
		path = d.path
	}
	if path == "" {
		return fmt.Errorf("no database file to save to")
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".propdb-*")
	if err != nil {
		return err
	}
	defer func() {
		// no-op after a successful rename
		_ = os.Remove(tmp.Name())
	}()

	positions, err := d.writeDump(tmp)
	if err == nil {
		err = tmp.Sync()
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return err
	}
	d.path = path

	if d.cache == nil {
		plog.Infof("saved %d objects to %s", len(positions), path)
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	d.cache.Rebase(f, positions)
	for ref := range positions {
		d.cache.UndirtyProps(ref)
	}
	if d.backing != nil {
		_ = d.backing.Close()
	}
	d.backing = f

	plog.Infof("saved %d objects to %s, %d resident", len(positions), path, d.cache.Info().Loaded)
	return nil
}

// writeDump writes the whole database and returns the block offset of
// every object
func (d *DB) writeDump(w io.Writer) (map[prop.DBRef]int64, error) {
	bw := bufio.NewWriterSize(w, 1024*1024) // 1 MB buffer
	cw := &countingWriter{w: bw}
	positions := make(map[prop.DBRef]int64, d.Len())

	if _, err := fmt.Fprintln(cw, dumpHeader); err != nil {
		return nil, err
	}

	for _, ref := range d.Refs() {
		obj, ok := d.objects.Load(ref)
		if !ok {
			continue
		}
		if _, err := fmt.Fprintf(cw, "!%d\n%s\n%s %s %s\n", int32(ref), obj.Name, obj.Type, obj.Location, obj.Owner); err != nil {
			return nil, err
		}

		positions[ref] = cw.n
		var err error
		if d.cache != nil {
			_, err = d.cache.WriteProps(cw, ref)
		} else {
			_, err = propfile.WriteProperties(cw, obj.props)
		}
		if err != nil {
			return nil, fmt.Errorf("properties of %s: %w", ref, err)
		}
	}

	if _, err := fmt.Fprintln(cw, dumpTrailer); err != nil {
		return nil, err
	}
	return positions, bw.Flush()
}
