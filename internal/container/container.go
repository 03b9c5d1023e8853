package container

import app "live-detect/internal/application"

type Container struct {
	Controller     *app.Controller
	CaptureService *app.CaptureService
	PhotoService   *app.PhotoService
}

func New(deps app.ControllerDeps, cfg app.ControllerConfig) *Container {
	controller := app.NewController(deps, cfg)
	captureService := app.NewCaptureService(deps.Captures)
	photoService := app.NewPhotoService(deps.Detector, deps.Annotator, deps.Captures)

	return &Container{
		Controller:     controller,
		CaptureService: captureService,
		PhotoService:   photoService,
	}
}
