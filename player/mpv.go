package player

import (
	"crypto/rand"
	"fmt"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/vidbridge/vidbridge/constant"
	"github.com/vidbridge/vidbridge/log"
	"github.com/vidbridge/vidbridge/observer"
	"github.com/vidbridge/vidbridge/oneshot"
)

const (
	socketWaitRetries = 10
	socketWaitDelay   = 300 * time.Millisecond
)

// MPV is a Media backed by an mpv process controlled over JSON-IPC.
type MPV struct {
	executable string
	socketPath string
	cmd        *exec.Cmd
	exited     chan struct{} // closed when mpv process exits
	events     *EventListener
	mu         sync.Mutex // Protects socket writes

	loadedMu sync.Mutex
	loaded   *oneshot.Value[float64]
	metadata observer.List[float64]
	paused   observer.List[bool]
}

// NewMPV creates a player for the given executable (does not start it).
func NewMPV(executable string) *MPV {
	if executable == "" {
		executable = "mpv"
	}
	return &MPV{
		executable: executable,
		exited:     make(chan struct{}),
		loaded:     oneshot.New[float64](),
	}
}

// Start launches mpv paused on target and begins observing it.
func (m *MPV) Start(target, title string) error {
	safeTarget, err := sanitizeMediaTarget(target)
	if err != nil {
		return fmt.Errorf("invalid media target: %w", err)
	}

	safeTitle := sanitizeTitle(title)

	// os.TempDir keeps the socket inside $TMPDIR on macOS
	if m.socketPath == "" {
		randomBytes := make([]byte, 4)
		if _, err := rand.Read(randomBytes); err != nil {
			return fmt.Errorf("generate socket name: %w", err)
		}
		m.socketPath = filepath.Join(os.TempDir(), fmt.Sprintf("%s-%x.sock", constant.App, randomBytes))
	}

	// Only pass what the protocol needs and respect the user's mpv.conf otherwise.
	args := []string{
		"--no-terminal",
		"--really-quiet",
		fmt.Sprintf("--input-ipc-server=%s", m.socketPath),
		fmt.Sprintf("--force-media-title=%s", safeTitle),
		fmt.Sprintf("--title=%s", safeTitle),
		"--force-window=yes",
		"--keep-open=yes",
		"--pause",
		safeTarget,
	}

	m.cmd = exec.Command(m.executable, args...)

	// Detach from parent process group to prevent cascading shell panics.
	m.cmd.SysProcAttr = sysProcAttr()
	m.cmd.Stdout = nil
	m.cmd.Stderr = nil
	m.cmd.Stdin = nil

	if err := m.cmd.Start(); err != nil {
		return fmt.Errorf("start mpv: %w", err)
	}

	// Reap the process to prevent zombies
	m.exited = make(chan struct{})
	go func() {
		_ = m.cmd.Wait()
		close(m.exited)
	}()

	if err := m.waitForSocket(); err != nil {
		if m.cmd.Process != nil {
			select {
			case <-m.exited:
			default:
				log.Warnf("killing mpv: socket never became ready")
				_ = m.cmd.Process.Kill()
			}
		}
		return fmt.Errorf("mpv socket not ready: %w", err)
	}

	return m.listen()
}

// listen starts the property observer on the IPC socket.
func (m *MPV) listen() error {
	m.events = NewEventListener(m.socketPath, m.onEvent)
	return m.events.Start()
}

func (m *MPV) onEvent(property string, data interface{}) {
	switch property {
	case "duration":
		if d, ok := data.(float64); ok && d > 0 {
			m.metadataLoaded(d)
		}
	case "pause":
		if p, ok := data.(bool); ok {
			m.paused.Notify(p)
		}
	}
}

func (m *MPV) metadataLoaded(duration float64) {
	m.loadedMu.Lock()
	resolved := m.loaded.Resolve(duration)
	m.loadedMu.Unlock()

	if resolved {
		m.metadata.Notify(duration)
	}
}

// OnMetadataLoaded calls fn once the duration is known.
func (m *MPV) OnMetadataLoaded(fn func(duration float64)) {
	m.loadedMu.Lock()
	if d, ok := m.loaded.Peek().Get(); ok {
		m.loadedMu.Unlock()
		fn(d)
		return
	}
	m.metadata.Subscribe(fn)
	m.loadedMu.Unlock()
}

// OnPauseChanged registers fn for every change of mpv's pause property,
// including the ones caused by the user in the mpv window.
func (m *MPV) OnPauseChanged(fn func(paused bool)) *observer.Callback[bool] {
	return m.paused.Subscribe(fn)
}

// Wait returns a channel that is closed when the mpv process exits.
func (m *MPV) Wait() <-chan struct{} {
	return m.exited
}

// waitForSocket polls until the mpv IPC socket is accepting connections.
func (m *MPV) waitForSocket() error {
	for i := 0; i < socketWaitRetries; i++ {
		time.Sleep(socketWaitDelay)

		select {
		case <-m.exited:
			return fmt.Errorf("mpv exited before socket was ready")
		default:
		}

		conn, err := net.Dial("unix", m.socketPath)
		if err == nil {
			conn.Close()
			return nil
		}
	}
	return fmt.Errorf("socket %s not ready after %d attempts", m.socketPath, socketWaitRetries)
}

// Play resumes playback.
func (m *MPV) Play() error {
	return m.Set("pause", false)
}

// Pause suspends playback.
func (m *MPV) Pause() error {
	return m.Set("pause", true)
}

// SetCurrentTime moves playback to the given absolute position in seconds.
func (m *MPV) SetCurrentTime(seconds float64) error {
	_, err := m.sendCommand("seek", seconds, "absolute")
	return err
}

// Duration returns the total duration of the current media in seconds.
func (m *MPV) Duration() (float64, error) {
	return m.getFloatProperty("duration")
}

// TimePos returns the current playback position in seconds.
func (m *MPV) TimePos() (float64, error) {
	return m.getFloatProperty("time-pos")
}

// Paused returns whether playback is currently paused.
func (m *MPV) Paused() (bool, error) {
	data, err := m.sendCommand("get_property", "pause")
	if err != nil {
		return false, err
	}
	paused, _ := data.(bool)
	return paused, nil
}

// IsRunning reports whether mpv is responding to IPC commands.
func (m *MPV) IsRunning() bool {
	if m.socketPath == "" {
		return false
	}

	select {
	case <-m.exited:
		return false
	default:
	}

	_, err := m.sendCommand("get_property", "pid")
	return err == nil
}

// Close shuts down the mpv process and cleans up resources.
func (m *MPV) Close() error {
	if m.events != nil {
		m.events.Stop()
	}

	if m.socketPath == "" || m.cmd == nil {
		return nil
	}

	select {
	case <-m.exited:
	default:
		_, _ = m.sendCommand("quit")

		select {
		case <-m.exited:
		case <-time.After(3 * time.Second):
			_ = killProcess(m.cmd)
		}
	}

	_ = os.Remove(m.socketPath)
	return nil
}

// Socket returns the IPC socket path.
func (m *MPV) Socket() string {
	return m.socketPath
}

// Set a property
func (m *MPV) Set(property string, value interface{}) error {
	_, err := m.sendCommand("set_property", property, value)
	return err
}

func (m *MPV) getFloatProperty(name string) (float64, error) {
	data, err := m.sendCommand("get_property", name)
	if err != nil {
		return 0, err
	}

	if data == nil {
		return 0, fmt.Errorf("property %s: nil response", name)
	}

	val, ok := data.(float64)
	if !ok {
		return 0, fmt.Errorf("property %s: expected float64, got %T", name, data)
	}

	return val, nil
}

func (m *MPV) getIntProperty(name string) (int, error) {
	f, err := m.getFloatProperty(name)
	return int(f), err
}

// sanitizeTitle strips characters that break mpv's option parsing.
func sanitizeTitle(title string) string {
	t := strings.NewReplacer("\n", " ", "\r", " ", "\t", " ", "\x00", "").Replace(title)
	return strings.TrimSpace(t)
}
