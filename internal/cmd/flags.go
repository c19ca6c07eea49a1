// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"flag"
	"fmt"
	"io"
	"path"
	"runtime/debug"
	"strings"

	"github.com/aibor/vfstree/internal/mount"
	"github.com/aibor/vfstree/internal/vfs"
)

const (
	name = "vfstree"

	// Arena limit in KiB. One bucket is the minimum.
	limitMin = 8
	limitMax = 1 << 30

	usageMessage = `Usage of 'vfstree':
    vfstree [flags...] [path...]

Mount real directories and cpio archives into one case-insensitive tree and
look up paths in it. Paths ending with "/" are listed as directories, all
others are looked up as files:
	vfstree -dir=data=./base -dir=data=./mod@10 data/maps/ data/Maps/ARENA.xml

Mount an archive with higher priority and print the whole tree:
	vfstree -dir==./base -archive==./patch.cpio@5 -tree

Keep running and rescan whenever a watched directory changes:
	vfstree -dir==./base -watch -tree

All vfstree flags can also be provided via environment variable VFSTREE_ARGS:
	VFSTREE_ARGS="-dir==./base -debug" vfstree -tree

All vfstree flags can also be provided via file ./.vfstree-args, with one
argument per line.
`
)

// mountSpecList collects mount specs of a single kind. It is shared by
// flags of different kinds, so mount order follows the command line.
type mountSpecList struct {
	specs *[]mount.Spec
	kind  mount.Kind
}

func (l *mountSpecList) String() string {
	if l.specs == nil {
		return ""
	}

	specs := []string{}

	for _, spec := range *l.specs {
		if spec.Kind == l.kind {
			specs = append(specs, spec.String())
		}
	}

	return strings.Join(specs, ",")
}

func (l *mountSpecList) Set(s string) error {
	spec, err := mount.ParseSpec(s, l.kind)
	if err != nil {
		return err //nolint:wrapcheck
	}

	*l.specs = append(*l.specs, spec)

	return nil
}

type flags struct {
	flagSet *flag.FlagSet

	specs  []mount.Spec
	paths  []string
	filter vfs.Filter
	glob   string
	limit  uint64

	watch   bool
	tree    bool
	debug   bool
	version bool
}

func newFlagSet(output io.Writer) *flags {
	f := &flags{}

	flagSet := flag.NewFlagSet(name, flag.ContinueOnError)
	flagSet.SetOutput(output)
	flagSet.Usage = f.usage

	flagSet.Var(
		&mountSpecList{specs: &f.specs, kind: mount.KindDir},
		"dir",
		"real directory to mount as virtual=path[@priority]. Empty virtual "+
			"path mounts at the root. Flag may be "+
			"used more than once. Earlier mounts win for the same file.",
	)

	flagSet.Var(
		&mountSpecList{specs: &f.specs, kind: mount.KindArchive},
		"archive",
		"cpio archive to mount as virtual=file[@priority]. Flag may be "+
			"used more than once.",
	)

	flagSet.BoolVar(
		&f.watch,
		"watch",
		f.watch,
		"keep running and rescan when mounted directories change",
	)

	flagSet.BoolVar(
		&f.tree,
		"tree",
		f.tree,
		"print the whole tree",
	)

	flagSet.StringVar(
		&f.filter.Pattern,
		"filter",
		f.filter.Pattern,
		"only list directory entries matching this case-insensitive pattern",
	)

	flagSet.BoolVar(
		&f.filter.DirsOnly,
		"dirsOnly",
		f.filter.DirsOnly,
		"only list subdirectories",
	)

	flagSet.StringVar(
		&f.glob,
		"glob",
		f.glob,
		"print all paths matching this case-sensitive glob pattern",
	)

	flagSet.Var(
		&limitedUintValue{
			Value: &f.limit,
			min:   limitMin,
			max:   limitMax,
		},
		"limit",
		"memory limit (in KiB) for the tree (default unlimited)",
	)

	flagSet.BoolVar(
		&f.debug,
		"debug",
		f.debug,
		"enable debug output",
	)

	flagSet.BoolVar(
		&f.version,
		"version",
		f.version,
		"show version and exit",
	)

	f.flagSet = flagSet

	return f
}

func parseArgs(args []string, output io.Writer) (*flags, error) {
	f := newFlagSet(output)

	// Parses arguments up to the first one that is not prefixed with a "-" or
	// is "--".
	err := f.flagSet.Parse(args)
	if err != nil {
		return nil, &ParseArgsError{msg: "flag parse", err: err}
	}

	// With version flag, just print the version and exit. Using [ErrHelp]
	// the main binary is supposed to return with a non error exit code.
	if f.version {
		err := f.printVersionInformation()
		return nil, &ParseArgsError{msg: "version requested", err: err}
	}

	if len(f.specs) == 0 {
		return nil, f.fail("no mounts given (use -dir or -archive)", nil)
	}

	if _, err := path.Match(f.filter.Pattern, ""); err != nil {
		return nil, f.fail("invalid filter", err)
	}

	if _, err := path.Match(f.glob, ""); err != nil {
		return nil, f.fail("invalid glob", err)
	}

	for idx := range f.specs {
		f.specs[idx].Watch = f.watch
	}

	f.paths = f.flagSet.Args()

	return f, nil
}

// arenaLimit returns the arena limit in bytes.
func (f *flags) arenaLimit() int {
	return int(f.limit) << 10 //nolint:gosec
}

// fail fails like flag does. It prints the error first and then usage.
func (f *flags) fail(msg string, err error) error {
	err = &ParseArgsError{msg: msg, err: err}
	fmt.Fprintln(f.flagSet.Output(), err.Error())

	f.flagSet.Usage()

	return err
}

func (f *flags) printVersionInformation() error {
	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return ErrReadBuildInfo
	}

	fmt.Fprintf(f.flagSet.Output(), "Version: %s\n", buildInfo.Main.Version)

	return ErrHelp
}

func (f *flags) usage() {
	fmt.Fprint(f.flagSet.Output(), usageMessage)
	fmt.Fprintln(f.flagSet.Output(), "\nFlags:")
	f.flagSet.PrintDefaults()
}
