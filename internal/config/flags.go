// Package config reads process flags and the retarget tuning file.
package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// AppDirName is the per-user data directory under $HOME.
const AppDirName = ".kathakali"

// Flags are the process options.
type Flags struct {
	Addr       string
	DataDir    string
	CameraID   int
	MockCamera bool
	TuningPath string
	WebDir     string
	HookDir    string
	Tray       bool
}

// DefaultFlags returns the options used when nothing is passed.
func DefaultFlags() Flags {
	data := DefaultDataDir()
	return Flags{
		Addr:       ":8080",
		DataDir:    data,
		TuningPath: filepath.Join(data, "tuning.yaml"),
		HookDir:    filepath.Join(data, "hooks"),
	}
}

// DefaultDataDir returns ~/.kathakali, or ./.kathakali without a home
// directory.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return AppDirName
	}
	return filepath.Join(home, AppDirName)
}

// ParseFlags parses args (without the program name). Paths left unset
// follow -data.
func ParseFlags(args []string, output io.Writer) (Flags, error) {
	def := DefaultFlags()
	f := Flags{}

	fs := flag.NewFlagSet("kathakali", flag.ContinueOnError)
	if output != nil {
		fs.SetOutput(output)
	}
	fs.StringVar(&f.Addr, "addr", def.Addr, "HTTP listen address")
	fs.StringVar(&f.DataDir, "data", def.DataDir, "data directory for the database, tuning file and hooks")
	fs.IntVar(&f.CameraID, "camera", 0, "camera device index")
	fs.BoolVar(&f.MockCamera, "mock-camera", false, "run without a webcam")
	fs.StringVar(&f.TuningPath, "tuning", "", "retarget tuning YAML (default <data>/tuning.yaml)")
	fs.StringVar(&f.WebDir, "web", "", "static web directory (default: search web/, ../web, <data>/web)")
	fs.StringVar(&f.HookDir, "hooks", "", "hook directory (default <data>/hooks)")
	fs.BoolVar(&f.Tray, "tray", false, "show the system tray menu")

	if err := fs.Parse(args); err != nil {
		return Flags{}, err
	}
	if fs.NArg() > 0 {
		return Flags{}, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	if f.CameraID < 0 {
		return Flags{}, fmt.Errorf("invalid -camera %d", f.CameraID)
	}

	if f.TuningPath == "" {
		f.TuningPath = filepath.Join(f.DataDir, "tuning.yaml")
	}
	if f.HookDir == "" {
		f.HookDir = filepath.Join(f.DataDir, "hooks")
	}
	return f, nil
}

// DBPath is the sqlite file inside the data directory.
func (f Flags) DBPath() string {
	return filepath.Join(f.DataDir, "kathakali.db")
}

// FindWebDir returns f.WebDir when set, else the first of web, ../web,
// ../../web and <data>/web that exists, else "".
func (f Flags) FindWebDir() string {
	if f.WebDir != "" {
		return f.WebDir
	}
	for _, p := range []string{"web", "../web", "../../web", filepath.Join(f.DataDir, "web")} {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}
	return ""
}
