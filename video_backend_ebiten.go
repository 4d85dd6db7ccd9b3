//go:build !headless

// video_backend_ebiten.go - Ebiten window frontend: screens, keypad and touch

/*
███╗   ██╗██╗████████╗██████╗  ██████╗ ██╗     ██╗███╗   ██╗██╗  ██╗
████╗  ██║██║╚══██╔══╝██╔══██╗██╔═══██╗██║     ██║████╗  ██║██║ ██╔╝
██╔██╗ ██║██║   ██║   ██████╔╝██║   ██║██║     ██║██╔██╗ ██║█████╔╝
██║╚██╗██║██║   ██║   ██╔══██╗██║   ██║██║     ██║██║╚██╗██║██╔═██╗
██║ ╚████║██║   ██║   ██║  ██║╚██████╔╝███████╗██║██║ ╚████║██║  ██╗
╚═╝  ╚═══╝╚═╝   ╚═╝   ╚═╝  ╚═╝ ╚═════╝ ╚══════╝╚═╝╚═╝  ╚═══╝╚═╝  ╚═╝

(c) 2025 - 2026 The NitroLink Authors
https://github.com/nitrobridge/nitrolink

License: GPLv3 or later
*/

/*
video_backend_ebiten.go - Ebiten Frontend

Both screens stacked in one window, the top screen above the bottom,
honouring the swap and backlight state. The frontend doubles as the
machine's KeypadSource: arrows, Z/X/A/S, shift and enter map onto the
pad, the mouse is the stylus while the left button is held, F12 copies
the Sub-screen console (fault reports included) to the clipboard.

When the Sub Screen is in text mode its console is rasterised with the
basicfont face instead of showing the graphics page.
*/

package main

import (
	"image"
	"image/color"
	"sync"

	"golang.design/x/clipboard"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

var ebitenKeymap = map[ebiten.Key]uint16{
	ebiten.KeyZ:          DS_BUTTON_A,
	ebiten.KeyX:          DS_BUTTON_B,
	ebiten.KeyA:          DS_BUTTON_Y,
	ebiten.KeyS:          DS_BUTTON_X,
	ebiten.KeyArrowUp:    DS_BUTTON_UP,
	ebiten.KeyArrowDown:  DS_BUTTON_DOWN,
	ebiten.KeyArrowLeft:  DS_BUTTON_LEFT,
	ebiten.KeyArrowRight: DS_BUTTON_RIGHT,
	ebiten.KeyEnter:      DS_BUTTON_START,
	ebiten.KeyBackspace:  DS_BUTTON_SELECT,
	ebiten.KeyQ:          DS_BUTTON_L,
	ebiten.KeyW:          DS_BUTTON_R,
}

type EbitenFrontend struct {
	host  *Host
	scale int
	title string

	mu    sync.Mutex
	state InputState

	mainPix []uint16
	subPix  []uint16
	mainRGB []byte
	subRGB  []byte
	mainImg *ebiten.Image
	subImg  *ebiten.Image
	textImg *image.RGBA

	clipboardOnce sync.Once
	clipboardOK   bool
}

func NewEbitenFrontend(host *Host, scale int, title string) *EbitenFrontend {
	if scale < 1 {
		scale = 1
	}
	if scale > 4 {
		scale = 4
	}
	return &EbitenFrontend{
		host:    host,
		scale:   scale,
		title:   title,
		mainPix: make([]uint16, SCREEN_PIXELS),
		subPix:  make([]uint16, SCREEN_PIXELS),
		mainRGB: make([]byte, SCREEN_PIXELS*4),
		subRGB:  make([]byte, SCREEN_PIXELS*4),
	}
}

// InputState makes the window the machine's KeypadSource.
func (e *EbitenFrontend) InputState() InputState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *EbitenFrontend) Run() error {
	ebiten.SetWindowSize(SCREEN_WIDTH*e.scale, SCREEN_HEIGHT*2*e.scale)
	ebiten.SetWindowTitle(e.title)
	return ebiten.RunGame(e)
}

func (e *EbitenFrontend) Stop() {}

func (e *EbitenFrontend) Layout(_, _ int) (int, int) {
	return SCREEN_WIDTH, SCREEN_HEIGHT * 2
}

func (e *EbitenFrontend) Update() error {
	var buttons uint16
	for key, mask := range ebitenKeymap {
		if ebiten.IsKeyPressed(key) {
			buttons |= mask
		}
	}

	var touchX, touchY uint8
	if ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		x, y := ebiten.CursorPosition()
		// The bottom half of the window is the touch screen unless the
		// screens are swapped.
		touchTop := 0
		if !e.host.Swapped() {
			touchTop = SCREEN_HEIGHT
		}
		if x >= 0 && x < SCREEN_WIDTH && y >= touchTop && y < touchTop+SCREEN_HEIGHT {
			buttons |= DS_BUTTON_TOUCH
			touchX = uint8(x)
			touchY = uint8(y - touchTop)
		}
	}

	e.mu.Lock()
	e.state = InputState{Buttons: buttons, TouchX: touchX, TouchY: touchY}
	e.mu.Unlock()

	if inpututil.IsKeyJustPressed(ebiten.KeyF12) {
		e.copyConsole()
	}
	return nil
}

// copyConsole puts the Sub-screen console text on the clipboard, which
// is the quickest way off the device for a fault report.
func (e *EbitenFrontend) copyConsole() {
	e.clipboardOnce.Do(func() {
		e.clipboardOK = clipboard.Init() == nil
	})
	if !e.clipboardOK {
		return
	}
	clipboard.Write(clipboard.FmtText, []byte(e.host.Console().Contents()))
}

func (e *EbitenFrontend) Draw(screen *ebiten.Image) {
	if e.mainImg == nil {
		e.mainImg = ebiten.NewImage(SCREEN_WIDTH, SCREEN_HEIGHT)
		e.subImg = ebiten.NewImage(SCREEN_WIDTH, SCREEN_HEIGHT)
		e.textImg = image.NewRGBA(image.Rect(0, 0, SCREEN_WIDTH, SCREEN_HEIGHT))
	}

	e.host.MainFrame(e.mainPix)
	frameToRGBA(e.mainPix, e.mainRGB)
	e.mainImg.WritePixels(e.mainRGB)

	if e.host.SubTextMode() {
		e.rasteriseConsole()
		e.subImg.WritePixels(e.textImg.Pix)
	} else {
		e.host.SubFrame(e.subPix)
		frameToRGBA(e.subPix, e.subRGB)
		e.subImg.WritePixels(e.subRGB)
	}

	// Main is on the bottom screen unless swapped.
	top, bottom := e.subImg, e.mainImg
	if e.host.Swapped() {
		top, bottom = e.mainImg, e.subImg
	}

	var op ebiten.DrawImageOptions
	screen.DrawImage(top, &op)
	op.GeoM.Translate(0, SCREEN_HEIGHT)
	screen.DrawImage(bottom, &op)
}

// rasteriseConsole draws the console lines with the basicfont face.
func (e *EbitenFrontend) rasteriseConsole() {
	for i := range e.textImg.Pix {
		e.textImg.Pix[i] = 0
	}
	for i := 3; i < len(e.textImg.Pix); i += 4 {
		e.textImg.Pix[i] = 0xFF
	}

	drawer := font.Drawer{
		Dst:  e.textImg,
		Src:  image.NewUniform(color.White),
		Face: basicfont.Face7x13,
	}
	for i, line := range e.host.Console().Lines() {
		if 10+i*13 > SCREEN_HEIGHT {
			break
		}
		drawer.Dot = fixed.P(2, 10+i*13)
		drawer.DrawString(line)
	}
}

// bindFrontendHost attaches the host once the machine exists; the
// frontend is created first because it is also the keypad source.
func bindFrontendHost(e *EbitenFrontend, h *Host) { e.host = h }
