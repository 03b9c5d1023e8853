package app

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"live-detect/internal/domain/entity"
	"live-detect/internal/domain/port"
	"live-detect/internal/infrastructure/camera"
	"live-detect/internal/infrastructure/render"
	"live-detect/internal/infrastructure/storage"
)

var catAndDog = []entity.Detection{
	{Label: "cat", Score: 0.9, Box: entity.BoundingBox{X: 10, Y: 20, Width: 100, Height: 50}},
	{Label: "dog", Score: 0.5, Box: entity.BoundingBox{X: 0, Y: 0, Width: 10, Height: 10}},
}

// stubDetector возвращает заданный результат; при gate != nil ждёт разрешения на каждый вызов
type stubDetector struct {
	mu     sync.Mutex
	calls  int
	result []entity.Detection
	errs   []error // ошибки для первых вызовов по порядку
	gate   chan struct{}
	called chan struct{}
}

func (d *stubDetector) Detect(ctx context.Context, frame image.Image) ([]entity.Detection, error) {
	d.mu.Lock()
	n := d.calls
	d.calls++
	var err error
	if n < len(d.errs) {
		err = d.errs[n]
	}
	d.mu.Unlock()

	if d.called != nil {
		select {
		case d.called <- struct{}{}:
		default:
		}
	}
	if d.gate != nil {
		<-d.gate
	}
	if err != nil {
		return nil, err
	}
	return d.result, nil
}

func (d *stubDetector) Calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

type recordingView struct {
	mu      sync.Mutex
	renders int
	clears  int
	last    []entity.Overlay
}

func (v *recordingView) Render(overlays []entity.Overlay) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.renders++
	v.last = overlays
}

func (v *recordingView) Clear() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.clears++
	v.last = nil
}

func (v *recordingView) snapshot() (int, int, []entity.Overlay) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.renders, v.clears, v.last
}

type failingCamera struct{}

func (failingCamera) Open(ctx context.Context, c port.Constraints) (port.Stream, error) {
	return nil, errors.New("permission denied")
}

type fixture struct {
	ctrl     *Controller
	cam      *camera.SyntheticCamera
	det      *stubDetector
	view     *recordingView
	captures *storage.MemoryCaptureRepository
}

func newFixture(t *testing.T, det *stubDetector, mutate func(*ControllerConfig)) *fixture {
	t.Helper()

	annotator, err := render.NewAnnotator()
	require.NoError(t, err)

	cam := &camera.SyntheticCamera{Width: 64, Height: 48, FrameInterval: time.Millisecond}
	view := &recordingView{}
	repo := storage.NewMemoryCaptureRepository(0)

	cfg := DefaultControllerConfig()
	cfg.RetryBackoff = time.Millisecond
	if mutate != nil {
		mutate(&cfg)
	}

	ctrl := NewController(ControllerDeps{
		Camera:    cam,
		Detector:  det,
		View:      view,
		Annotator: annotator,
		Captures:  repo,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, cfg)

	t.Cleanup(ctrl.Stop)
	return &fixture{ctrl: ctrl, cam: cam, det: det, view: view, captures: repo}
}

func (f *fixture) waitFrames(t *testing.T, n int64) {
	t.Helper()
	require.Eventually(t, func() bool {
		return f.ctrl.Status().Frames >= n
	}, 2*time.Second, time.Millisecond)
}

func TestController_RendersOnlyConfidentDetections(t *testing.T) {
	f := newFixture(t, &stubDetector{result: catAndDog}, nil)

	require.NoError(t, f.ctrl.Start(context.Background(), entity.FacingBack))
	f.waitFrames(t, 2)

	st := f.ctrl.Status()
	require.True(t, st.Active)
	require.Len(t, st.Overlays, 2)
	require.Equal(t, entity.OverlayBox, st.Overlays[0].Kind)
	require.Equal(t, 10.0, st.Overlays[0].X)
	require.Equal(t, 20.0, st.Overlays[0].Y)
	require.Equal(t, "cat - with 90% confidence.", st.Overlays[1].Text)

	_, _, last := f.view.snapshot()
	require.Equal(t, st.Overlays, last)
}

func TestController_StopReleasesStreamAndOverlays(t *testing.T) {
	f := newFixture(t, &stubDetector{result: catAndDog}, nil)

	require.NoError(t, f.ctrl.Start(context.Background(), entity.FacingBack))
	f.waitFrames(t, 1)

	f.ctrl.Stop()

	st := f.ctrl.Status()
	require.False(t, st.Active)
	require.Empty(t, st.Overlays)

	streams := f.cam.Streams()
	require.Len(t, streams, 1)
	for _, tr := range streams[0].Tracks() {
		require.False(t, tr.Live())
	}

	_, clears, last := f.view.snapshot()
	require.Equal(t, 1, clears)
	require.Empty(t, last)

	// Повторная остановка ничего не ломает.
	f.ctrl.Stop()
}

func TestController_ToggleCamera(t *testing.T) {
	f := newFixture(t, &stubDetector{result: catAndDog}, nil)
	ctx := context.Background()

	require.NoError(t, f.ctrl.ToggleCamera(ctx))
	require.False(t, f.ctrl.Status().Active)
	require.Empty(t, f.cam.Streams())

	require.NoError(t, f.ctrl.Start(ctx, entity.FacingBack))
	require.NoError(t, f.ctrl.ToggleCamera(ctx))

	st := f.ctrl.Status()
	require.True(t, st.Active)
	require.Equal(t, entity.FacingFront, st.Facing)

	streams := f.cam.Streams()
	require.Len(t, streams, 2)
	require.False(t, streams[0].VideoTrack().Live())
	require.Equal(t, entity.FacingFront, streams[1].Facing())
	require.True(t, streams[1].VideoTrack().Live())
}

func TestController_CaptureUsesNativeResolution(t *testing.T) {
	f := newFixture(t, &stubDetector{result: catAndDog}, nil)
	ctx := context.Background()

	require.NoError(t, f.ctrl.Start(ctx, entity.FacingBack))
	f.waitFrames(t, 1)

	capture, err := f.ctrl.CaptureFrame(ctx)
	require.NoError(t, err)
	require.Equal(t, 64, capture.Width)
	require.Equal(t, 48, capture.Height)
	require.Len(t, capture.Overlays, 2)

	img, err := png.Decode(bytes.NewReader(capture.PNG))
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 64, 48), img.Bounds())

	stored, err := f.captures.Get(ctx, capture.ID)
	require.NoError(t, err)
	require.Equal(t, capture, stored)

	// По умолчанию снимок завершает сеанс.
	require.False(t, f.ctrl.Status().Active)
}

func TestController_CaptureKeepsSessionWhenConfigured(t *testing.T) {
	f := newFixture(t, &stubDetector{result: catAndDog}, func(c *ControllerConfig) {
		c.StopAfterCapture = false
	})
	ctx := context.Background()

	require.NoError(t, f.ctrl.Start(ctx, entity.FacingBack))
	f.waitFrames(t, 1)

	_, err := f.ctrl.CaptureFrame(ctx)
	require.NoError(t, err)
	require.True(t, f.ctrl.Status().Active)
}

// gatedNotifier держит уведомление, пока не закрыт release
type gatedNotifier struct {
	entered chan struct{}
	release chan struct{}
}

func (n *gatedNotifier) NotifyCapture(ctx context.Context, capture *entity.Capture) error {
	close(n.entered)
	<-n.release
	return nil
}

func TestController_SlowNotificationDoesNotBlockCommands(t *testing.T) {
	annotator, err := render.NewAnnotator()
	require.NoError(t, err)
	notifier := &gatedNotifier{entered: make(chan struct{}), release: make(chan struct{})}

	cfg := DefaultControllerConfig()
	cfg.StopAfterCapture = false
	ctrl := NewController(ControllerDeps{
		Camera:    &camera.SyntheticCamera{Width: 64, Height: 48, FrameInterval: time.Millisecond},
		Detector:  &stubDetector{result: catAndDog},
		Annotator: annotator,
		Captures:  storage.NewMemoryCaptureRepository(0),
		Notifier:  notifier,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, cfg)
	t.Cleanup(ctrl.Stop)

	ctx := context.Background()
	require.NoError(t, ctrl.Start(ctx, entity.FacingBack))
	require.Eventually(t, func() bool { return ctrl.Status().Frames > 0 }, 2*time.Second, time.Millisecond)

	type result struct {
		capture *entity.Capture
		err     error
	}
	done := make(chan result, 1)
	go func() {
		capture, err := ctrl.CaptureFrame(ctx)
		done <- result{capture, err}
	}()

	select {
	case <-notifier.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("notification was not sent")
	}

	stopped := make(chan struct{})
	go func() {
		ctrl.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Stop blocked by a pending notification")
	}
	require.False(t, ctrl.Status().Active)

	close(notifier.release)
	res := <-done
	require.NoError(t, res.err)
	require.Equal(t, 64, res.capture.Width)
}

func TestController_CaptureRequiresSession(t *testing.T) {
	f := newFixture(t, &stubDetector{}, nil)

	_, err := f.ctrl.CaptureFrame(context.Background())
	require.ErrorIs(t, err, ErrNotActive)
}

func TestController_CaptureBeforeFirstFrame(t *testing.T) {
	det := &stubDetector{gate: make(chan struct{})}
	f := newFixture(t, det, nil)
	defer close(det.gate)

	require.NoError(t, f.ctrl.Start(context.Background(), entity.FacingBack))

	_, err := f.ctrl.CaptureFrame(context.Background())
	require.ErrorIs(t, err, ErrNoFrame)
}

func TestController_Torch(t *testing.T) {
	f := newFixture(t, &stubDetector{}, nil)
	ctx := context.Background()

	_, err := f.ctrl.ToggleTorch(ctx)
	require.ErrorIs(t, err, ErrNotActive)

	require.NoError(t, f.ctrl.Start(ctx, entity.FacingBack))
	on, err := f.ctrl.ToggleTorch(ctx)
	require.ErrorIs(t, err, ErrTorchUnsupported)
	require.False(t, on)
	require.False(t, f.ctrl.Status().Torch)

	f.ctrl.Stop()
	f.cam.Torch = true
	require.NoError(t, f.ctrl.Start(ctx, entity.FacingBack))

	on, err = f.ctrl.ToggleTorch(ctx)
	require.NoError(t, err)
	require.True(t, on)
	require.True(t, f.cam.TorchOn())
	require.True(t, f.ctrl.Status().Torch)

	on, err = f.ctrl.ToggleTorch(ctx)
	require.NoError(t, err)
	require.False(t, on)

	on, err = f.ctrl.ToggleTorch(ctx)
	require.NoError(t, err)
	require.True(t, on)

	f.ctrl.Stop()
	require.False(t, f.ctrl.Status().Torch)
}

func TestController_TorchApplyFailureKeepsState(t *testing.T) {
	f := newFixture(t, &stubDetector{}, nil)
	ctx := context.Background()

	rejected := errors.New("could not start video source")
	f.cam.Torch = true
	f.cam.TorchErr = rejected
	require.NoError(t, f.ctrl.Start(ctx, entity.FacingBack))

	on, err := f.ctrl.ToggleTorch(ctx)
	require.ErrorIs(t, err, rejected)
	require.NotErrorIs(t, err, ErrTorchUnsupported)
	require.False(t, on)
	require.False(t, f.ctrl.Status().Torch)
	require.False(t, f.cam.TorchOn())
	require.True(t, f.ctrl.Status().Active)
}

func TestController_CameraAcquisitionFailure(t *testing.T) {
	annotator, err := render.NewAnnotator()
	require.NoError(t, err)

	ctrl := NewController(ControllerDeps{
		Camera:    failingCamera{},
		Detector:  &stubDetector{},
		Annotator: annotator,
		Captures:  storage.NewMemoryCaptureRepository(0),
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, DefaultControllerConfig())

	err = ctrl.Start(context.Background(), entity.FacingFront)
	require.ErrorIs(t, err, ErrCameraAcquisition)

	st := ctrl.Status()
	require.False(t, st.Active)
	require.Contains(t, st.LastError, "permission denied")
}

func TestController_StartTwice(t *testing.T) {
	f := newFixture(t, &stubDetector{}, nil)
	ctx := context.Background()

	require.NoError(t, f.ctrl.Start(ctx, entity.FacingBack))
	require.ErrorIs(t, f.ctrl.Start(ctx, entity.FacingFront), ErrSessionActive)
	require.Len(t, f.cam.Streams(), 1)
}

func TestController_DetectorNotReady(t *testing.T) {
	ctrl := NewController(ControllerDeps{Camera: &camera.SyntheticCamera{}}, DefaultControllerConfig())
	require.ErrorIs(t, ctrl.Start(context.Background(), entity.FacingBack), ErrDetectorNotReady)
}

func TestController_DiscardsInFlightResultAfterStop(t *testing.T) {
	det := &stubDetector{
		result: catAndDog,
		gate:   make(chan struct{}),
		called: make(chan struct{}, 1),
	}
	f := newFixture(t, det, nil)

	require.NoError(t, f.ctrl.Start(context.Background(), entity.FacingBack))
	<-det.called

	f.ctrl.mu.Lock()
	run := f.ctrl.run
	f.ctrl.mu.Unlock()

	f.ctrl.Stop()
	close(det.gate)

	select {
	case <-run.done:
	case <-time.After(2 * time.Second):
		t.Fatal("detection loop did not exit")
	}

	require.Equal(t, 1, det.Calls())
	renders, _, last := f.view.snapshot()
	require.Zero(t, renders)
	require.Empty(t, last)
	require.Empty(t, f.ctrl.Status().Overlays)
	require.Zero(t, f.ctrl.Status().Frames)
}

func TestController_StopsOnDetectorFailure(t *testing.T) {
	det := &stubDetector{errs: []error{errors.New("model crashed")}}
	f := newFixture(t, det, nil)

	require.NoError(t, f.ctrl.Start(context.Background(), entity.FacingBack))

	require.Eventually(t, func() bool {
		return !f.ctrl.Status().Active
	}, 2*time.Second, time.Millisecond)

	st := f.ctrl.Status()
	require.Contains(t, st.LastError, "model crashed")
	require.Equal(t, 1, det.Calls())
	require.False(t, f.cam.Streams()[0].VideoTrack().Live())
}

func TestController_RetriesDetectorFailure(t *testing.T) {
	boom := errors.New("busy")
	det := &stubDetector{result: catAndDog, errs: []error{boom, boom}}
	f := newFixture(t, det, func(c *ControllerConfig) {
		c.FailurePolicy = FailureRetry
		c.MaxRetries = 2
	})

	require.NoError(t, f.ctrl.Start(context.Background(), entity.FacingBack))
	f.waitFrames(t, 1)

	st := f.ctrl.Status()
	require.True(t, st.Active)
	require.Len(t, st.Overlays, 2)
}

func TestController_RetryGivesUp(t *testing.T) {
	boom := errors.New("busy")
	det := &stubDetector{errs: []error{boom, boom, boom, boom}}
	f := newFixture(t, det, func(c *ControllerConfig) {
		c.FailurePolicy = FailureRetry
		c.MaxRetries = 1
	})

	require.NoError(t, f.ctrl.Start(context.Background(), entity.FacingBack))

	require.Eventually(t, func() bool {
		return !f.ctrl.Status().Active
	}, 2*time.Second, time.Millisecond)
	require.Equal(t, 2, det.Calls())
}

func TestController_DetectTimeout(t *testing.T) {
	det := &blockingDetector{}
	f := newFixture(t, nil, func(c *ControllerConfig) {
		c.DetectTimeout = 10 * time.Millisecond
	})
	f.ctrl.detector = det

	require.NoError(t, f.ctrl.Start(context.Background(), entity.FacingBack))

	require.Eventually(t, func() bool {
		return !f.ctrl.Status().Active
	}, 2*time.Second, time.Millisecond)
	require.Contains(t, f.ctrl.Status().LastError, context.DeadlineExceeded.Error())
}

// blockingDetector ждёт отмены контекста
type blockingDetector struct{}

func (blockingDetector) Detect(ctx context.Context, frame image.Image) ([]entity.Detection, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestController_Toggle(t *testing.T) {
	f := newFixture(t, &stubDetector{}, func(c *ControllerConfig) {
		c.DefaultFacing = entity.FacingFront
	})
	ctx := context.Background()

	active, err := f.ctrl.Toggle(ctx)
	require.NoError(t, err)
	require.True(t, active)
	require.Equal(t, entity.FacingFront, f.ctrl.Status().Facing)

	active, err = f.ctrl.Toggle(ctx)
	require.NoError(t, err)
	require.False(t, active)
	require.False(t, f.ctrl.Status().Active)
}
