// Command expandkey widens a recstore file's maxKeyLen, producing a
// new file that preserves every live record (spec.md §6.3). It is
// outside the core: the core only guarantees that any file it writes
// is readable by a reader honouring the on-disk format.
package main

import (
	"fmt"
	"os"

	flag "github.com/spf13/pflag"
	"github.com/natefinch/atomic"

	"github.com/jlah/recstore"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out, errOut *os.File) int {
	fs := flag.NewFlagSet("expandkey", flag.ContinueOnError)
	fs.SetOutput(errOut)

	in := fs.String("in", "", "path to the existing store file")
	outPath := fs.String("out", "", "path to write the widened store file")
	maxKeyLen := fs.Uint8("max-key-len", 0, "new maximum key length (must be larger than the source file's)")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *in == "" || *outPath == "" || *maxKeyLen == 0 {
		fmt.Fprintln(errOut, "usage: expandkey --in <path> --out <path> --max-key-len <n>")
		return 2
	}

	if err := expand(*in, *outPath, *maxKeyLen); err != nil {
		fmt.Fprintln(errOut, "expandkey:", err)
		return 1
	}
	fmt.Fprintf(out, "wrote %s\n", *outPath)
	return 0
}

func expand(inPath, outPath string, newMaxKeyLen uint8) error {
	src, err := recstore.Open(inPath, recstore.OpenRO, recstore.Options{})
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer src.Close()

	snapshot := src.Snapshot()
	if len(snapshot) == 0 {
		return fmt.Errorf("source store has no records")
	}
	if newMaxKeyLen <= maxObservedKeyLen(snapshot) {
		return fmt.Errorf("max-key-len %d must exceed every existing key's length", newMaxKeyLen)
	}
	hf, err := os.Open(inPath)
	if err != nil {
		return fmt.Errorf("open source header: %w", err)
	}
	var srcMaxKeyLen [1]byte // maxKeyLen is the header's first byte
	_, err = hf.ReadAt(srcMaxKeyLen[:], 0)
	hf.Close()
	if err != nil {
		return fmt.Errorf("read source header: %w", err)
	}
	if newMaxKeyLen <= srcMaxKeyLen[0] {
		return fmt.Errorf("max-key-len %d must exceed the source file's %d", newMaxKeyLen, srcMaxKeyLen[0])
	}

	payloads := make(map[string][]byte, len(snapshot))
	for _, entry := range snapshot {
		payload, err := src.Read(entry.Key)
		if err != nil {
			return fmt.Errorf("read %x: %w", entry.Key, err)
		}
		payloads[string(entry.Key)] = payload
	}

	tmpPath := outPath + ".expandkey.tmp"
	defer os.Remove(tmpPath)

	dst, err := recstore.Open(tmpPath, recstore.CreateOrOpenRW, recstore.Options{
		MaxKeyLen:         newMaxKeyLen,
		PreallocatedSlots: len(snapshot),
		PayloadCrcEnabled: true,
	})
	if err != nil {
		return fmt.Errorf("create destination: %w", err)
	}

	for _, entry := range snapshot {
		if err := dst.Insert(entry.Key, payloads[string(entry.Key)]); err != nil {
			dst.Close()
			return fmt.Errorf("insert %x: %w", entry.Key, err)
		}
	}
	if err := dst.Fsync(); err != nil {
		dst.Close()
		return fmt.Errorf("fsync destination: %w", err)
	}
	if err := dst.Close(); err != nil {
		return fmt.Errorf("close destination: %w", err)
	}

	tmpFile, err := os.Open(tmpPath)
	if err != nil {
		return fmt.Errorf("reopen temp file: %w", err)
	}
	defer tmpFile.Close()

	if err := atomic.WriteFile(outPath, tmpFile); err != nil {
		return fmt.Errorf("publish %s: %w", outPath, err)
	}
	return nil
}

func maxObservedKeyLen(snapshot []recstore.SnapshotEntry) uint8 {
	var max uint8
	for _, e := range snapshot {
		if l := len(e.Key); l > int(max) {
			max = uint8(l)
		}
	}
	return max
}
