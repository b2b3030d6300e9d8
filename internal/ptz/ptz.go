package ptz

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/tapoptz/tapoptz/internal/api"
	"github.com/tapoptz/tapoptz/internal/api/ws"
	"github.com/tapoptz/tapoptz/internal/app"
	"github.com/tapoptz/tapoptz/internal/camera"
	"github.com/tapoptz/tapoptz/pkg/core"
)

func Init() {
	var cfg struct {
		Cameras map[string]camera.Config `yaml:"cameras"`
		Mod     struct {
			// PollInterval - read status of connected cameras for position metrics
			PollInterval time.Duration `yaml:"poll_interval"`
		} `yaml:"ptz"`
	}

	app.LoadConfig(&cfg)

	log = app.GetLogger("ptz")

	service = NewService(cfg.Cameras, NewMetrics(api.Registry), log)

	if len(cfg.Cameras) == 0 {
		log.Info().Msg("[ptz] no cameras in config")
	}

	if cfg.Mod.PollInterval > 0 {
		service.StartPolling(cfg.Mod.PollInterval)
	}

	api.HandleFunc("api/cameras", apiCameras)
	api.HandleFunc("api/ptz", apiPTZ)
	api.HandleFunc("api/ptz/presets", apiPresets)
	api.HandleFunc("api/ptz/home", apiHome)
	api.HandleFunc("api/ptz/info", apiInfo)
	api.HandleFunc("api/onvif", apiOnvif)

	ws.HandleFunc("ptz/move", wsMove)
	ws.HandleFunc("ptz/stop", wsStop)
	ws.HandleFunc("ptz/status", wsStatus)
}

var log = zerolog.Nop()

var service = NewService(nil, nil, zerolog.Nop())

var ErrCameraNotFound = errors.New("ptz: camera not found")

// Service - named cameras from config with lazy connected controllers
type Service struct {
	cameras map[string]*entry
	metrics *Metrics
	log     zerolog.Logger

	worker *core.Worker
	mu     sync.Mutex
}

type entry struct {
	cfg  camera.Config
	ctrl *camera.Controller
	mu   sync.Mutex
}

func NewService(cameras map[string]camera.Config, metrics *Metrics, log zerolog.Logger) *Service {
	s := &Service{
		cameras: make(map[string]*entry, len(cameras)),
		metrics: metrics,
		log:     log,
	}
	for name, cfg := range cameras {
		s.cameras[name] = &entry{cfg: cfg}
	}
	return s
}

func (s *Service) Names() []string {
	names := make([]string, 0, len(s.cameras))
	for name := range s.cameras {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Controller return connected controller, connect on first call.
// Failed connect is retried on next call.
func (s *Service) Controller(name string) (*camera.Controller, error) {
	e, ok := s.cameras[name]
	if !ok {
		return nil, ErrCameraNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.ctrl != nil {
		return e.ctrl, nil
	}

	ctrl := camera.NewController(e.cfg, s.log.With().Str("camera", name).Logger())
	if err := ctrl.Connect(); err != nil {
		s.log.Warn().Err(err).Str("camera", name).Msg("[ptz] connect")
		return nil, err
	}

	e.ctrl = ctrl
	return ctrl, nil
}

// connected return controller only if it is already connected
func (s *Service) connected(name string) *camera.Controller {
	e, ok := s.cameras[name]
	if !ok {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ctrl
}

// Do run operation on camera controller with metrics
func (s *Service) Do(name, operation string, f func(c *camera.Controller) error) error {
	start := time.Now()

	ctrl, err := s.Controller(name)
	if err == nil {
		err = f(ctrl)
	}

	if errors.Is(err, ErrCameraNotFound) {
		return err
	}

	s.metrics.Observe(name, operation, time.Since(start), err)

	if err != nil {
		s.log.Debug().Err(err).Str("camera", name).Str("operation", operation).Msg("[ptz] operation")
	} else {
		s.log.Trace().Str("camera", name).Str("operation", operation).Msg("[ptz] operation")
	}

	return err
}

// Status read status and update position metrics
func (s *Service) Status(name string) (status *Status, err error) {
	err = s.Do(name, "status", func(c *camera.Controller) error {
		st, err := c.Status()
		if err != nil {
			return err
		}
		status = newStatus(st)
		s.metrics.SetPosition(name, status.Pan, status.Tilt, status.Zoom)
		return nil
	})
	return
}

// StartPolling read status of connected cameras every interval
func (s *Service) StartPolling(interval time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.worker != nil {
		return
	}

	s.worker = core.NewWorker(interval, func() time.Duration {
		s.poll()
		return interval
	})
}

func (s *Service) poll() {
	for _, name := range s.Names() {
		if s.connected(name) == nil {
			continue
		}
		if _, err := s.Status(name); err != nil {
			s.log.Debug().Err(err).Str("camera", name).Msg("[ptz] poll")
		}
	}
}

func (s *Service) Close() {
	s.mu.Lock()
	s.worker.Stop()
	s.worker = nil
	s.mu.Unlock()
}
