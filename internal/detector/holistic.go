package detector

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

const (
	serviceScript      = "holistic_service.py"
	serviceIdleTimeout = 30 * time.Second
)

// ErrServiceNotFound is returned when the holistic service script cannot be located.
var ErrServiceNotFound = errors.New(serviceScript + " not found")

// HolisticDetector implements Detector using a Python MediaPipe Holistic
// subprocess. Frames go out as a 4-byte big-endian length followed by a
// JPEG; each result comes back as one JSON line.
type HolisticDetector struct {
	config Config
	script string
	logger *log.Logger

	mu        sync.Mutex
	cmd       *exec.Cmd
	stdin     io.WriteCloser
	stdout    *bufio.Reader
	started   bool
	idleTimer *time.Timer
}

// NewHolisticDetector creates a new holistic detector.
// The Python process is started lazily on first detection and stopped
// after 30 seconds without frames.
func NewHolisticDetector(config Config, logger *log.Logger) (*HolisticDetector, error) {
	script := findServiceScript()
	if script == "" {
		return nil, ErrServiceNotFound
	}
	if logger == nil {
		logger = log.Default()
	}
	return &HolisticDetector{config: config, script: script, logger: logger}, nil
}

// Detect sends one frame to the service and waits for its landmarks.
func (d *HolisticDetector) Detect(frame *gocv.Mat) (*Result, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ensureStarted(); err != nil {
		return nil, err
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	if err := writeFrame(d.stdin, buf.GetBytes()); err != nil {
		return nil, err
	}

	line, err := d.stdout.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	result, err := decodeResult(line)
	if err != nil {
		return nil, err
	}
	if result.Timestamp == 0 {
		result.Timestamp = time.Now().UnixMilli()
	}

	d.resetIdleTimer()
	return result, nil
}

// Close shuts down the Python process.
func (d *HolisticDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.shutdown()
}

func writeFrame(w io.Writer, data []byte) error {
	var length [4]byte
	binary.BigEndian.PutUint32(length[:], uint32(len(data)))
	if _, err := w.Write(length[:]); err != nil {
		return fmt.Errorf("write length: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write data: %w", err)
	}
	return nil
}

// decodeResult parses one response line. Landmark groups with the wrong
// number of points are dropped rather than failing the frame.
func decodeResult(line []byte) (*Result, error) {
	var r Result
	if err := json.Unmarshal(line, &r); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if n := len(r.PoseLandmarks); n != 0 && n != NumPoseLandmarks {
		r.PoseLandmarks = nil
	}
	if n := len(r.PoseWorldLandmarks); n != 0 && n != NumPoseLandmarks {
		r.PoseWorldLandmarks = nil
	}
	if n := len(r.FaceLandmarks); n != 0 && n != NumFaceLandmarks && n != NumRefinedFaceLandmarks {
		r.FaceLandmarks = nil
	}
	if len(r.LeftHandLandmarks) != 0 && len(r.LeftHandLandmarks) != NumHandLandmarks {
		r.LeftHandLandmarks = nil
	}
	if len(r.RightHandLandmarks) != 0 && len(r.RightHandLandmarks) != NumHandLandmarks {
		r.RightHandLandmarks = nil
	}
	return &r, nil
}

// args renders the config as service command-line flags.
func (c Config) args() []string {
	return []string{
		"--model-complexity", strconv.Itoa(c.ModelComplexity),
		"--smooth-landmarks=" + strconv.FormatBool(c.SmoothLandmarks),
		"--refine-face=" + strconv.FormatBool(c.RefineFace),
		"--min-detection-confidence", strconv.FormatFloat(c.MinDetectionConf, 'f', -1, 64),
		"--min-tracking-confidence", strconv.FormatFloat(c.MinTrackingConf, 'f', -1, 64),
		"--solve=" + strconv.FormatBool(c.Solve),
	}
}

func (d *HolisticDetector) ensureStarted() error {
	if d.started {
		return nil
	}

	pythonPath := findVenvPython()
	if pythonPath == "" {
		pythonPath = "python3"
	}

	d.cmd = exec.Command(pythonPath, append([]string{d.script}, d.config.args()...)...)

	stdin, err := d.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}
	stdout, err := d.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}
	d.cmd.Stderr = os.Stderr

	if err := d.cmd.Start(); err != nil {
		return fmt.Errorf("start holistic service: %w", err)
	}

	d.stdin = stdin
	d.stdout = bufio.NewReader(stdout)
	d.started = true
	d.logger.Printf("Holistic service started (pid %d)", d.cmd.Process.Pid)
	return nil
}

func (d *HolisticDetector) shutdown() error {
	if !d.started {
		return nil
	}

	if d.idleTimer != nil {
		d.idleTimer.Stop()
		d.idleTimer = nil
	}
	if d.stdin != nil {
		d.stdin.Close()
	}

	err := d.cmd.Wait()
	d.started = false
	d.cmd = nil
	d.stdin = nil
	d.stdout = nil
	return err
}

func (d *HolisticDetector) resetIdleTimer() {
	if d.idleTimer != nil {
		d.idleTimer.Stop()
	}
	d.idleTimer = time.AfterFunc(serviceIdleTimeout, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		if err := d.shutdown(); err != nil {
			d.logger.Printf("Holistic service exited: %v", err)
		}
	})
}

func findServiceScript() string {
	var execDir string
	if execPath, err := os.Executable(); err == nil {
		execDir = filepath.Dir(execPath)
	}
	return firstExisting(
		filepath.Join("scripts", serviceScript),
		filepath.Join("..", "scripts", serviceScript),
		filepath.Join(execDir, "scripts", serviceScript),
		filepath.Join(os.Getenv("HOME"), ".kathakali", "scripts", serviceScript),
	)
}

// findVenvPython looks for a Python interpreter in a virtual environment.
func findVenvPython() string {
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}
	return firstExisting(
		"venv/bin/python",
		"../venv/bin/python",
		"../../venv/bin/python",
		filepath.Join(filepath.Dir(execPath), "venv/bin/python"),
		filepath.Join(os.Getenv("HOME"), ".kathakali/venv/bin/python"),
	)
}

func firstExisting(paths ...string) string {
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if abs, err := filepath.Abs(path); err == nil {
			return abs
		}
		return path
	}
	return ""
}
