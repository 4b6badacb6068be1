package level

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/tidwall/gjson"
)

const (
	datapacksDir   = "datapacks"
	packMetadata   = "pack.mcmeta"
	filePackPrefix = "file/"
	benchmarkTag   = "# @benchmark"
)

// BaselineFunction is the function run as the reference measurement.
const BaselineFunction = "mch:baseline"

var functionPath = regexp.MustCompile(`^([a-z0-9_.-]+)/functions/([a-z0-9/._-]+)\.mcfunction$`)

// IsBenchmarkPack reports whether pack.mcmeta content marks the pack as a benchmark pack.
func IsBenchmarkPack(meta []byte) bool {
	if !gjson.ValidBytes(meta) {
		return false
	}
	return gjson.GetBytes(meta, "pack.mch").Bool()
}

// DiscoverBenchmarkPacks lists the directory datapacks of a world whose pack.mcmeta
// sets pack.mch to true, as "file/<dir>" identifiers in name order.
// Packs with unreadable or malformed metadata are skipped.
func DiscoverBenchmarkPacks(levelDir string) ([]string, error) {
	root := filepath.Join(levelDir, datapacksDir)
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to list datapacks: %w", err)
	}

	var packs []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := os.ReadFile(filepath.Join(root, entry.Name(), packMetadata))
		if err != nil {
			continue
		}
		if IsBenchmarkPack(meta) {
			packs = append(packs, filePackPrefix+entry.Name())
		}
	}
	sort.Strings(packs)
	return packs, nil
}

// BenchmarkFunctions lists the functions of a "file/<dir>" pack whose first line is
// "# @benchmark", as sorted "namespace:path" resource locations.
func BenchmarkFunctions(levelDir, pack string) ([]string, error) {
	if !strings.HasPrefix(pack, filePackPrefix) {
		return nil, fmt.Errorf("not a directory datapack: %q", pack)
	}
	root := filepath.Join(levelDir, datapacksDir, strings.TrimPrefix(pack, filePackPrefix), "data")

	var functions []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && path == root {
				return filepath.SkipDir
			}
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		m := functionPath.FindStringSubmatch(filepath.ToSlash(rel))
		if m == nil {
			return nil
		}

		tagged, err := hasBenchmarkTag(path)
		if err != nil {
			return err
		}
		if tagged {
			functions = append(functions, m[1]+":"+m[2])
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan functions of %s: %w", pack, err)
	}

	sort.Strings(functions)
	return functions, nil
}

func hasBenchmarkTag(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		return false, scanner.Err()
	}
	return strings.TrimSuffix(scanner.Text(), "\r") == benchmarkTag, nil
}
