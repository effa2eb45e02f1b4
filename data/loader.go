package data

import (
	"embed"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/h3probe/h3probe/framework/helpers"
)

//go:embed data-files
var dataFilesRoot embed.FS

const dataBasePath = "data-files"

// SourceInfo is one test case definition read from a data file, after
// constant and parameter expansion. A plain file yields one SourceInfo; a
// parameterized file yields one per parameter combination, each with its
// own version of Data. See docs/data_files.md.
type SourceInfo struct {
	FilePath string
	BaseName string
	Params   substitutionSet
	Data     []byte
}

// ParseInto unmarshals the expanded data, wrapping any error with enough
// context to identify the file and parameter set it came from.
func (s SourceInfo) ParseInto(target interface{}) error {
	if err := ParseJSONOrYAML(s.Data, target); err != nil {
		return fmt.Errorf("error parsing %q %s: %w", s.BaseName, s.ParamsString(), err)
	}
	return nil
}

// ParamsString describes the parameter values this SourceInfo was expanded
// with, in a stable key order, or returns "" for unparameterized sources.
func (s SourceInfo) ParamsString() string {
	if len(s.Params) == 0 {
		return ""
	}
	names := make([]string, 0, len(s.Params))
	for name := range s.Params {
		names = append(names, name)
	}
	pairs := make([]string, 0, len(names))
	for _, name := range helpers.Sorted(names) {
		pairs = append(pairs, name+"="+string(s.Params[name]))
	}
	return "(" + strings.Join(pairs, ",") + ")"
}

// LoadDataFile reads one data file, relative to data/data-files, and
// expands any constants and parameters it declares. A parameterized file
// produces multiple SourceInfos. See docs/data_files.md.
func LoadDataFile(path string) ([]SourceInfo, error) {
	raw, err := dataFilesRoot.ReadFile(dataBasePath + "/" + path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %q: %w", path, err)
	}
	expanded, err := expandSubstitutions(raw)
	if err != nil {
		return nil, fmt.Errorf("error reading %q: %s", path, err)
	}
	baseName := filepath.Base(path)
	infos := make([]SourceInfo, 0, len(expanded))
	for _, info := range expanded {
		info.FilePath = path
		info.BaseName = baseName
		infos = append(infos, info)
	}
	return infos, nil
}

// LoadAllDataFiles reads every data file in a directory, relative to
// data/data-files, in filename order. Each file can contribute multiple
// SourceInfos if it is parameterized.
func LoadAllDataFiles(path string) ([]SourceInfo, error) {
	files, err := dataFilesRoot.ReadDir(dataBasePath + "/" + path)
	if err != nil {
		return nil, err
	}
	var infos []SourceInfo
	for _, file := range files {
		fromFile, err := LoadDataFile(path + "/" + file.Name())
		if err != nil {
			return nil, err
		}
		infos = append(infos, fromFile...)
	}
	return infos, nil
}
