package classifier

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"
)

// ServiceClassifier implements Classifier using a Python subprocess running the
// trained tap model. Each request is one JSON line on stdin, answered with one
// JSON line on stdout.
type ServiceClassifier struct {
	cmd       *exec.Cmd
	stdin     io.WriteCloser
	stdout    *bufio.Reader
	mu        sync.Mutex
	started   bool
	idleTimer *time.Timer
}

// NewServiceClassifier creates a classifier backed by the tap model service.
// The Python process is started lazily on first classification; an error here
// means the service script is missing and the classifier is unavailable.
func NewServiceClassifier() (*ServiceClassifier, error) {
	if findModelScript() == "" {
		return nil, fmt.Errorf("tap_model_service.py not found")
	}
	return &ServiceClassifier{}, nil
}

type serviceRequest struct {
	Velocity     []float64 `json:"velocity"`
	Acceleration []float64 `json:"acceleration"`
	Stability    []float64 `json:"stability"`
}

// Classify sends one window tensor to the model service and parses the result.
func (c *ServiceClassifier) Classify(t Tensor) (Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureStarted(); err != nil {
		return Result{}, err
	}

	req := serviceRequest{
		Velocity:     t[0][:],
		Acceleration: t[1][:],
		Stability:    t[2][:],
	}

	data, err := json.Marshal(req)
	if err != nil {
		return Result{}, fmt.Errorf("marshal request: %w", err)
	}
	data = append(data, '\n')

	if _, err := c.stdin.Write(data); err != nil {
		return Result{}, fmt.Errorf("write request: %w", err)
	}

	line, err := c.stdout.ReadString('\n')
	if err != nil {
		return Result{}, fmt.Errorf("read response: %w", err)
	}

	var res Result
	if err := json.Unmarshal([]byte(line), &res); err != nil {
		return Result{}, fmt.Errorf("parse response: %w", err)
	}
	if res.Label == "" {
		return Result{}, fmt.Errorf("model service returned no label")
	}
	if conf, ok := res.Confidences[res.Label]; ok {
		res.Confidence = conf
	}

	c.resetIdleTimer()

	return res, nil
}

// Close shuts down the model service process.
func (c *ServiceClassifier) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.shutdown()
}

func (c *ServiceClassifier) ensureStarted() error {
	if c.started {
		return nil
	}

	scriptPath := findModelScript()
	if scriptPath == "" {
		return fmt.Errorf("tap_model_service.py not found")
	}

	c.cmd = exec.Command("python3", scriptPath)

	stdin, err := c.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}

	stdout, err := c.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}

	c.cmd.Stderr = os.Stderr

	if err := c.cmd.Start(); err != nil {
		return fmt.Errorf("start model service: %w", err)
	}

	c.stdin = stdin
	c.stdout = bufio.NewReader(stdout)
	c.started = true

	return nil
}

func (c *ServiceClassifier) shutdown() error {
	if !c.started {
		return nil
	}

	if c.idleTimer != nil {
		c.idleTimer.Stop()
		c.idleTimer = nil
	}

	if c.stdin != nil {
		c.stdin.Close()
	}

	err := c.cmd.Wait()
	c.started = false
	c.cmd = nil
	c.stdin = nil
	c.stdout = nil

	return err
}

func (c *ServiceClassifier) resetIdleTimer() {
	if c.idleTimer != nil {
		c.idleTimer.Stop()
	}
	c.idleTimer = time.AfterFunc(30*time.Second, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.shutdown()
	})
}

func findModelScript() string {
	execPath, err := os.Executable()
	var execDir string
	if err == nil {
		execDir = filepath.Dir(execPath)
	}

	candidates := []string{
		"scripts/tap_model_service.py",
		"../scripts/tap_model_service.py",
		filepath.Join(execDir, "scripts/tap_model_service.py"),
		filepath.Join(os.Getenv("HOME"), ".tapflow/scripts/tap_model_service.py"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			absPath, err := filepath.Abs(path)
			if err == nil {
				return absPath
			}
			return path
		}
	}
	return ""
}
