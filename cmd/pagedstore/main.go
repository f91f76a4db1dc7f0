// Command pagedstore is a small demonstration CLI over the
// pagedstore library, grounded on original_source/src/main.rs's
// build-a-structure-then-print-it shape and
// askorykh-goDB/cmd/godb-server/main.go's flag-driven entrypoint.
//
// It pushes a series of integers (from -values, or one per line of
// stdin if -values is omitted) onto a PagedVector[uint32] backed
// either by a file (-db) or, with -mem, an ephemeral in-memory
// provider, then reports the vector's length and prints every element
// back out in order.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"pagedstore"
)

func main() {
	dbPath := flag.String("db", "pagedstore.db", "path to the backing file (ignored with -mem)")
	mem := flag.Bool("mem", false, "use an in-memory provider instead of a file")
	values := flag.String("values", "", "comma-separated integers to push; reads stdin (one per line) if empty")
	flag.Parse()

	var pp pagedstore.PageProvider
	if *mem {
		pp = pagedstore.NewMemoryProvider()
	} else {
		fp, err := pagedstore.OpenFileProvider(pagedstore.FileProviderOptions{
			Path:   *dbPath,
			Create: true,
		})
		if err != nil {
			log.Fatalf("pagedstore: open %s: %v", *dbPath, err)
		}
		defer fp.Close()
		pp = fp
	}

	vec, err := pagedstore.NewPagedVector[uint32](pp)
	if err != nil {
		log.Fatalf("pagedstore: new vector: %v", err)
	}

	vals, err := readValues(*values)
	if err != nil {
		log.Fatalf("pagedstore: %v", err)
	}
	if err := vec.Append(vals); err != nil {
		log.Fatalf("pagedstore: append: %v", err)
	}

	fmt.Printf("len = %d\n", vec.Len())
	it := vec.Iter()
	for {
		v, ok := it.Next()
		if !ok {
			break
		}
		fmt.Println(v)
	}
}

// readValues parses csv ("1,2,3") if non-empty, otherwise reads one
// integer per line from stdin until EOF.
func readValues(csv string) ([]uint32, error) {
	if csv != "" {
		parts := strings.Split(csv, ",")
		out := make([]uint32, 0, len(parts))
		for _, p := range parts {
			n, err := strconv.ParseUint(strings.TrimSpace(p), 10, 32)
			if err != nil {
				return nil, fmt.Errorf("parsing %q: %w", p, err)
			}
			out = append(out, uint32(n))
		}
		return out, nil
	}

	var out []uint32
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		n, err := strconv.ParseUint(line, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("parsing %q: %w", line, err)
		}
		out = append(out, uint32(n))
	}
	return out, scanner.Err()
}
