//go:build linux

package headless

import (
	"fmt"
	"log"
	"time"
	"unsafe"

	"github.com/richinsley/twinscreen/graphics"
)

/*
#cgo LDFLAGS: -lEGL
#include <EGL/egl.h>
#include <EGL/eglext.h>

// Go doesn't have a great way to call function pointers from C,
// so we'll create simple wrappers for the extension functions.
static PFNEGLQUERYDEVICESEXTPROC eglQueryDevicesEXT_ptr = NULL;
static PFNEGLGETPLATFORMDISPLAYEXTPROC eglGetPlatformDisplayEXT_ptr = NULL;

static void initialize_egl_extension_pointers() {
    eglQueryDevicesEXT_ptr = (PFNEGLQUERYDEVICESEXTPROC) eglGetProcAddress("eglQueryDevicesEXT");
    eglGetPlatformDisplayEXT_ptr = (PFNEGLGETPLATFORMDISPLAYEXTPROC) eglGetProcAddress("eglGetPlatformDisplayEXT");
}

static EGLDisplay get_platform_display(EGLenum platform, void *native_display, const EGLint *attrib_list) {
    if (eglGetPlatformDisplayEXT_ptr) {
        return eglGetPlatformDisplayEXT_ptr(platform, native_display, attrib_list);
    }
    return EGL_NO_DISPLAY;
}

static EGLBoolean query_devices(EGLint max_devices, EGLDeviceEXT *devices, EGLint *num_devices) {
    if (eglQueryDevicesEXT_ptr) {
        return eglQueryDevicesEXT_ptr(max_devices, devices, num_devices);
    }
    return EGL_FALSE;
}
*/
import "C"

// Platform renders both screens into EGL pbuffers with desktop OpenGL
// contexts. Every method must run on the thread that called Init.
type Platform struct {
	display C.EGLDisplay
	config  C.EGLConfig
	start   time.Time
	thread  graphics.ThreadLock
}

func New() graphics.Platform { return &Platform{} }

// getEGLDisplay tries the robust device enumeration method first,
// falling back to the default display.
func getEGLDisplay() (C.EGLDisplay, error) {
	C.initialize_egl_extension_pointers()

	var numDevices C.EGLint
	if C.query_devices(0, nil, &numDevices) == C.EGL_FALSE || numDevices == 0 {
		log.Println("Warning: EGL_EXT_device_query not supported or no devices found. Falling back to EGL_DEFAULT_DISPLAY.")
		display := C.eglGetDisplay(C.EGLNativeDisplayType(C.EGL_DEFAULT_DISPLAY))
		if display == C.EGLDisplay(C.EGL_NO_DISPLAY) {
			return C.EGLDisplay(C.EGL_NO_DISPLAY), fmt.Errorf("fallback to eglGetDisplay(EGL_DEFAULT_DISPLAY) failed")
		}
		return display, nil
	}

	log.Printf("Found %d EGL device(s).", numDevices)
	devices := make([]C.EGLDeviceEXT, numDevices)
	if C.query_devices(numDevices, &devices[0], &numDevices) == C.EGL_FALSE {
		return C.EGLDisplay(C.EGL_NO_DISPLAY), fmt.Errorf("failed to query EGL devices")
	}

	for i := 0; i < int(numDevices); i++ {
		display := C.get_platform_display(C.EGL_PLATFORM_DEVICE_EXT, unsafe.Pointer(devices[i]), nil)
		if display != C.EGLDisplay(C.EGL_NO_DISPLAY) {
			log.Printf("Successfully got EGL display from device %d.", i)
			return display, nil
		}
	}
	return C.EGLDisplay(C.EGL_NO_DISPLAY), fmt.Errorf("could not get a valid EGL display from any available device")
}

func (p *Platform) Init() (err error) {
	p.thread.Lock()
	defer func() {
		if err != nil {
			p.thread.Unlock()
		}
	}()
	display, err := getEGLDisplay()
	if err != nil {
		return fmt.Errorf("failed to get EGL display: %w", err)
	}
	var major, minor C.EGLint
	if C.eglInitialize(display, &major, &minor) == C.EGL_FALSE {
		return fmt.Errorf("failed to initialize EGL")
	}
	log.Printf("EGL Initialized. Version: %d.%d", major, minor)

	if C.eglBindAPI(C.EGL_OPENGL_API) == C.EGL_FALSE {
		C.eglTerminate(display)
		return fmt.Errorf("EGL display does not support desktop OpenGL")
	}

	configAttribs := []C.EGLint{
		C.EGL_SURFACE_TYPE, C.EGL_PBUFFER_BIT,
		C.EGL_RED_SIZE, 8,
		C.EGL_GREEN_SIZE, 8,
		C.EGL_BLUE_SIZE, 8,
		C.EGL_ALPHA_SIZE, 8,
		C.EGL_DEPTH_SIZE, 24,
		C.EGL_RENDERABLE_TYPE, C.EGL_OPENGL_BIT,
		C.EGL_NONE,
	}
	var numConfig C.EGLint
	if C.eglChooseConfig(display, &configAttribs[0], &p.config, 1, &numConfig) == C.EGL_FALSE || numConfig == 0 {
		C.eglTerminate(display)
		return fmt.Errorf("failed to choose EGL config")
	}
	p.display = display
	p.start = time.Now()
	return nil
}

func (p *Platform) Terminate() {
	defer p.thread.Unlock()
	if p.display == C.EGLDisplay(C.EGL_NO_DISPLAY) {
		return
	}
	C.eglMakeCurrent(p.display, C.EGLSurface(C.EGL_NO_SURFACE), C.EGLSurface(C.EGL_NO_SURFACE), C.EGLContext(C.EGL_NO_CONTEXT))
	C.eglTerminate(p.display)
	p.display = C.EGLDisplay(C.EGL_NO_DISPLAY)
	log.Printf("EGL Terminated")
}

func (p *Platform) PollEvents() {}

func (p *Platform) DetachCurrent() {
	C.eglMakeCurrent(p.display, C.EGLSurface(C.EGL_NO_SURFACE), C.EGLSurface(C.EGL_NO_SURFACE), C.EGLContext(C.EGL_NO_CONTEXT))
}

func (p *Platform) Time() float64 { return time.Since(p.start).Seconds() }

// CreateWindow creates a pbuffer surface of spec's size with its own
// context. Title, monitor and visibility do not apply.
func (p *Platform) CreateWindow(spec graphics.WindowSpec, share graphics.Window) (graphics.Window, error) {
	shareContext := C.EGLContext(C.EGL_NO_CONTEXT)
	if share != nil {
		sw, ok := share.(*Surface)
		if !ok {
			return nil, fmt.Errorf("egl: cannot share with %T", share)
		}
		shareContext = sw.context
	}

	pbufferAttribs := []C.EGLint{
		C.EGL_WIDTH, C.EGLint(spec.Width),
		C.EGL_HEIGHT, C.EGLint(spec.Height),
		C.EGL_NONE,
	}
	surface := C.eglCreatePbufferSurface(p.display, p.config, &pbufferAttribs[0])
	if surface == C.EGLSurface(C.EGL_NO_SURFACE) {
		return nil, fmt.Errorf("failed to create Pbuffer surface")
	}

	profile := C.EGLint(C.EGL_CONTEXT_OPENGL_COMPATIBILITY_PROFILE_BIT_KHR)
	if spec.CoreProfile {
		profile = C.EGL_CONTEXT_OPENGL_CORE_PROFILE_BIT_KHR
	}
	contextAttribs := []C.EGLint{
		C.EGL_CONTEXT_MAJOR_VERSION_KHR, C.EGLint(spec.Major),
		C.EGL_CONTEXT_MINOR_VERSION_KHR, C.EGLint(spec.Minor),
		C.EGL_CONTEXT_OPENGL_PROFILE_MASK_KHR, profile,
		C.EGL_NONE,
	}
	context := C.eglCreateContext(p.display, p.config, shareContext, &contextAttribs[0])
	if context == C.EGLContext(C.EGL_NO_CONTEXT) {
		C.eglDestroySurface(p.display, surface)
		return nil, fmt.Errorf("failed to create OpenGL %d.%d context", spec.Major, spec.Minor)
	}

	return &Surface{
		platform: p,
		surface:  surface,
		context:  context,
		width:    spec.Width,
		height:   spec.Height,
		major:    spec.Major,
		minor:    spec.Minor,
	}, nil
}

// Surface is one offscreen render target.
type Surface struct {
	platform      *Platform
	surface       C.EGLSurface
	context       C.EGLContext
	width, height int
	major, minor  int
	shouldClose   bool
}

func (s *Surface) MakeCurrent() {
	C.eglMakeCurrent(s.platform.display, s.surface, s.surface, s.context)
}

func (s *Surface) SwapBuffers() {
	C.eglSwapBuffers(s.platform.display, s.surface)
}

func (s *Surface) ShouldClose() bool                { return s.shouldClose }
func (s *Surface) SetShouldClose(b bool)            { s.shouldClose = b }
func (s *Surface) DrainEvents() []graphics.Event    { return nil }
func (s *Surface) GetFramebufferSize() (int, int)   { return s.width, s.height }
func (s *Surface) ContextVersion() (int, int)       { return s.major, s.minor }
func (s *Surface) Handle() uintptr                  { return uintptr(unsafe.Pointer(s.surface)) }
func (s *Surface) KeyPressed(key graphics.Key) bool { return false }

func (s *Surface) Destroy() {
	d := s.platform.display
	C.eglDestroyContext(d, s.context)
	C.eglDestroySurface(d, s.surface)
}
