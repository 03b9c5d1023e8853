package app

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"

	"live-detect/internal/domain/entity"
	"live-detect/internal/domain/port"
)

// FailurePolicy что делать, если детектор или камера вернули ошибку посреди цикла
type FailurePolicy string

const (
	FailureStop  FailurePolicy = "stop"  // остановить сеанс
	FailureRetry FailurePolicy = "retry" // повторить с паузой, затем остановить
)

// ControllerConfig настройки цикла детекции
type ControllerConfig struct {
	IdealWidth       int
	IdealHeight      int
	DefaultFacing    entity.FacingMode
	DetectTimeout    time.Duration // 0 означает ждать детектор сколько угодно
	FailurePolicy    FailurePolicy
	MaxRetries       int           // подряд идущих ошибок до остановки при FailureRetry
	RetryBackoff     time.Duration
	StopAfterCapture bool
}

// DefaultControllerConfig возвращает настройки по умолчанию: 1280x720, основная камера, остановка при ошибке.
func DefaultControllerConfig() ControllerConfig {
	return ControllerConfig{
		IdealWidth:       1280,
		IdealHeight:      720,
		DefaultFacing:    entity.FacingBack,
		FailurePolicy:    FailureStop,
		MaxRetries:       3,
		RetryBackoff:     500 * time.Millisecond,
		StopAfterCapture: true,
	}
}

// Controller управляет сеансом детекции: камерой, циклом детектора, оверлеями и снимками.
type Controller struct {
	camera    port.Camera
	detector  port.ObjectDetector
	view      port.OverlayView
	annotator port.Annotator
	captures  port.CaptureRepository
	notifier  port.CaptureNotifier
	cfg       ControllerConfig
	logger    *slog.Logger

	// opMu упорядочивает команды, mu защищает состояние, которое читает цикл.
	// Цикл берёт только mu.
	opMu sync.Mutex
	mu   sync.Mutex

	facing   entity.FacingMode
	run      *loopRun
	overlays []entity.Overlay
	torch    bool
	frames   int64
	lastErr  error
}

// loopRun всё, что принадлежит одному сеансу
type loopRun struct {
	session *entity.Session
	stream  port.Stream
	cancel  context.CancelFunc
	done    chan struct{}
	frame   image.Image // последний обработанный кадр
}

// ControllerDeps внешние зависимости контроллера
type ControllerDeps struct {
	Camera    port.Camera
	Detector  port.ObjectDetector
	View      port.OverlayView
	Annotator port.Annotator
	Captures  port.CaptureRepository
	Notifier  port.CaptureNotifier
	Logger    *slog.Logger
}

// NewController создаёт контроллер. View, Notifier и Logger необязательны.
func NewController(deps ControllerDeps, cfg ControllerConfig) *Controller {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.DefaultFacing == "" {
		cfg.DefaultFacing = entity.FacingBack
	}
	return &Controller{
		camera:    deps.Camera,
		detector:  deps.Detector,
		view:      deps.View,
		annotator: deps.Annotator,
		captures:  deps.Captures,
		notifier:  deps.Notifier,
		cfg:       cfg,
		logger:    logger.With("component", "controller"),
		facing:    cfg.DefaultFacing,
	}
}

// Start открывает камеру с выбранной стороны и запускает цикл детекции.
func (c *Controller) Start(ctx context.Context, facing entity.FacingMode) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()
	return c.start(ctx, facing)
}

// Stop останавливает цикл, гасит дорожки и убирает оверлеи. Повторный вызов ничего не делает.
func (c *Controller) Stop() {
	c.opMu.Lock()
	defer c.opMu.Unlock()
	c.stop()
}

// Toggle запускает детекцию с запомненной камерой или останавливает её.
// Возвращает true, если после вызова сеанс активен.
func (c *Controller) Toggle(ctx context.Context) (bool, error) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	active := c.run != nil
	facing := c.facing
	c.mu.Unlock()

	if active {
		c.stop()
		return false, nil
	}
	if err := c.start(ctx, facing); err != nil {
		return false, err
	}
	return true, nil
}

// ToggleCamera перезапускает сеанс с противоположной камерой. Без активного сеанса ничего не делает.
func (c *Controller) ToggleCamera(ctx context.Context) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	r := c.run
	c.mu.Unlock()
	if r == nil {
		return nil
	}

	next := r.session.Facing.Opposite()
	c.stop()
	return c.start(ctx, next)
}

// ToggleTorch переключает фонарик и возвращает новое состояние.
func (c *Controller) ToggleTorch(ctx context.Context) (bool, error) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	r := c.run
	want := !c.torch
	c.mu.Unlock()

	if r == nil {
		return false, ErrNotActive
	}

	track := r.stream.VideoTrack()
	if track == nil || !track.Capabilities().Torch {
		c.logger.Info("torch is not supported", "session", r.session.ID)
		return c.torchState(), ErrTorchUnsupported
	}

	if err := track.ApplyConstraints(ctx, port.TrackConstraints{Torch: want}); err != nil {
		return c.torchState(), fmt.Errorf("apply torch constraint: %w", err)
	}

	c.mu.Lock()
	if c.run == r {
		c.torch = want
	}
	c.mu.Unlock()

	c.logger.Info("torch toggled", "session", r.session.ID, "on", want)
	return want, nil
}

// CaptureFrame рисует оверлеи поверх последнего кадра в родном разрешении и сохраняет PNG.
// Уведомление уходит уже после снятия блокировки команд, медленный получатель не задерживает Stop.
func (c *Controller) CaptureFrame(ctx context.Context) (*entity.Capture, error) {
	capture, err := c.capture(ctx)
	if err != nil {
		return nil, err
	}

	if c.notifier != nil {
		if err := c.notifier.NotifyCapture(ctx, capture); err != nil {
			c.logger.Warn("capture notification failed", "capture", capture.ID, "error", err)
		}
	}
	return capture, nil
}

func (c *Controller) capture(ctx context.Context) (*entity.Capture, error) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	r := c.run
	if r == nil {
		c.mu.Unlock()
		return nil, ErrNotActive
	}
	frame := r.frame
	facing := r.session.Facing
	overlays := append([]entity.Overlay(nil), c.overlays...)
	c.mu.Unlock()

	if frame == nil {
		return nil, ErrNoFrame
	}

	png, err := c.annotator.Annotate(frame, overlays)
	if err != nil {
		return nil, fmt.Errorf("annotate frame: %w", err)
	}

	b := frame.Bounds()
	capture := entity.NewCapture(b.Dx(), b.Dy(), facing, overlays, png)
	if err := c.captures.Save(ctx, capture); err != nil {
		return nil, fmt.Errorf("save capture: %w", err)
	}

	c.logger.Info("frame captured", "capture", capture.ID, "width", capture.Width, "height", capture.Height, "overlays", len(overlays))

	if c.cfg.StopAfterCapture {
		c.stop()
	}
	return capture, nil
}

// Status возвращает текущее состояние контроллера
func (c *Controller) Status() entity.Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := entity.Status{
		Facing:   c.facing,
		Torch:    c.torch,
		Overlays: append([]entity.Overlay{}, c.overlays...),
		Frames:   c.frames,
	}
	if c.run != nil {
		st.Active = true
		st.SessionID = c.run.session.ID
		st.Facing = c.run.session.Facing
	}
	if c.lastErr != nil {
		st.LastError = c.lastErr.Error()
	}
	return st
}

func (c *Controller) start(ctx context.Context, facing entity.FacingMode) error {
	if c.detector == nil {
		return ErrDetectorNotReady
	}

	c.mu.Lock()
	if c.run != nil {
		c.mu.Unlock()
		return ErrSessionActive
	}
	c.facing = facing
	c.mu.Unlock()

	stream, err := c.camera.Open(ctx, port.Constraints{
		Facing:      facing,
		IdealWidth:  c.cfg.IdealWidth,
		IdealHeight: c.cfg.IdealHeight,
	})
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrCameraAcquisition, err)
		c.mu.Lock()
		c.lastErr = err
		c.mu.Unlock()
		c.logger.Error("camera acquisition failed", "facing", facing, "error", err)
		return err
	}

	// Цикл живёт дольше запроса, который его запустил.
	loopCtx, cancel := context.WithCancel(context.Background())
	r := &loopRun{
		session: entity.NewSession(facing),
		stream:  stream,
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	c.mu.Lock()
	c.run = r
	c.overlays = nil
	c.torch = false
	c.lastErr = nil
	c.mu.Unlock()

	w, h := stream.Size()
	c.logger.Info("detection started", "session", r.session.ID, "facing", facing, "width", w, "height", h)

	go c.loop(loopCtx, r)
	return nil
}

func (c *Controller) stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.run == nil {
		return
	}
	id := c.run.session.ID
	c.teardownLocked()
	c.logger.Info("detection stopped", "session", id)
}

// teardownLocked освобождает поток текущего сеанса. Вызывается под mu.
func (c *Controller) teardownLocked() {
	r := c.run
	if r == nil {
		return
	}
	r.session.Deactivate()
	r.cancel()
	for _, t := range r.stream.Tracks() {
		t.Stop()
	}
	c.run = nil
	c.overlays = nil
	c.torch = false
	if c.view != nil {
		c.view.Clear()
	}
}

// loop один цикл на сеанс: кадр, детектор, оверлеи, и снова. Следующий кадр
// берётся только после того, как обработан предыдущий.
func (c *Controller) loop(ctx context.Context, r *loopRun) {
	defer close(r.done)

	failures := 0
	for {
		if !c.isCurrent(r) {
			return
		}

		err := c.cycle(ctx, r)
		if err == nil {
			failures = 0
			continue
		}
		if errors.Is(err, errStale) || !c.isCurrent(r) {
			// Сеанс остановлен, пока детектор работал: результат отбрасываем.
			return
		}

		failures++
		if c.cfg.FailurePolicy == FailureRetry && failures <= c.cfg.MaxRetries {
			c.logger.Warn("detection cycle failed, retrying", "session", r.session.ID, "attempt", failures, "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(c.cfg.RetryBackoff):
			}
			continue
		}

		c.fail(r, err)
		return
	}
}

var errStale = errors.New("stale session")

func (c *Controller) cycle(ctx context.Context, r *loopRun) error {
	frame, err := r.stream.Read(ctx)
	if err != nil {
		return fmt.Errorf("read frame: %w", err)
	}

	detections, err := c.detect(ctx, frame)
	if err != nil {
		return fmt.Errorf("detect: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.run != r || !r.session.Active {
		return errStale
	}
	r.frame = frame
	c.overlays = entity.BuildOverlays(detections)
	c.frames++
	if c.view != nil {
		c.view.Render(c.overlays)
	}
	return nil
}

func (c *Controller) detect(ctx context.Context, frame image.Image) ([]entity.Detection, error) {
	if c.cfg.DetectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.DetectTimeout)
		defer cancel()
	}
	return c.detector.Detect(ctx, frame)
}

func (c *Controller) fail(r *loopRun, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.run != r {
		return
	}
	c.lastErr = err
	c.logger.Error("detection stopped on error", "session", r.session.ID, "error", err)
	c.teardownLocked()
}

func (c *Controller) isCurrent(r *loopRun) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.run == r && r.session.Active
}

func (c *Controller) torchState() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.torch
}

var _ port.DetectionController = (*Controller)(nil)
