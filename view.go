package main

import (
	"fmt"
	"image/color"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	text "github.com/hajimehoshi/ebiten/v2/text/v2"
	"go.uber.org/zap"
	"golang.org/x/image/font/basicfont"

	"wander/client"
	"wander/game"
	"wander/protocol"
)

const (
	defaultScreenWidth  = 800
	defaultScreenHeight = 600
)

// Directional keys. Other keys are ignored entirely.
var keyBindings = map[ebiten.Key]protocol.Direction{
	ebiten.KeyArrowUp:    protocol.DirUp,
	ebiten.KeyArrowDown:  protocol.DirDown,
	ebiten.KeyArrowLeft:  protocol.DirLeft,
	ebiten.KeyArrowRight: protocol.DirRight,
}

// nameFace renders player name tags. The bitmap face needs no font asset.
var nameFace text.Face = text.NewGoXFace(basicfont.Face7x13)

// App is the ebiten game: Update feeds key edges to the input translator,
// Draw runs the render cycle, Layout tracks the viewport size. It stays
// idle (nothing drawn but a status line) until the session reports the
// local player, then redraws every display refresh for the rest of the
// process lifetime.
type App struct {
	session  *client.Session
	registry *client.Registry
	avatars  *client.AvatarCache
	input    *client.InputTranslator
	log      *zap.SugaredLogger

	worldMu sync.RWMutex
	world   *ebiten.Image // nil until the map image decode lands
	worldW  float64
	worldH  float64

	viewW, viewH int
	showDebug    bool
	released     bool // keys released after disconnect
}

// NewApp wires the render loop to the shared client state.
func NewApp(session *client.Session, registry *client.Registry, avatars *client.AvatarCache, input *client.InputTranslator, log *zap.SugaredLogger, showDebug bool) *App {
	return &App{
		session:   session,
		registry:  registry,
		avatars:   avatars,
		input:     input,
		log:       log,
		worldW:    game.WorldWidth,
		worldH:    game.WorldHeight,
		viewW:     defaultScreenWidth,
		viewH:     defaultScreenHeight,
		showDebug: showDebug,
	}
}

// setWorld installs the decoded world map and adopts its extent as the
// camera clamp bounds.
func (a *App) setWorld(img *ebiten.Image) {
	a.worldMu.Lock()
	a.world = img
	a.worldW = float64(img.Bounds().Dx())
	a.worldH = float64(img.Bounds().Dy())
	a.worldMu.Unlock()
}

func (a *App) worldImage() (*ebiten.Image, float64, float64) {
	a.worldMu.RLock()
	defer a.worldMu.RUnlock()
	return a.world, a.worldW, a.worldH
}

// Update translates keyboard edges into commands. All other client state is
// mutated by the session's dispatch, never here.
func (a *App) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if a.session.Disconnected() {
		if !a.released {
			a.input.ReleaseAll()
			a.released = true
			a.log.Warnw("connection lost, input released", "reason", a.session.Err())
		}
		return nil
	}
	for key, dir := range keyBindings {
		if inpututil.IsKeyJustPressed(key) {
			a.input.KeyDown(dir)
		}
		if inpututil.IsKeyJustReleased(key) {
			a.input.KeyUp(dir)
		}
	}
	return nil
}

// Draw paints one frame: background positioned by the camera, then every
// visible player's avatar frame and name tag.
func (a *App) Draw(screen *ebiten.Image) {
	if !a.session.Ready() {
		a.drawStatus(screen)
		return
	}
	local, ok := a.registry.Get(a.session.LocalID())
	if !ok {
		a.drawStatus(screen)
		return
	}

	vw, vh := float64(a.viewW), float64(a.viewH)
	world, worldW, worldH := a.worldImage()
	cam := game.CameraFor(local.X, local.Y, vw, vh, worldW, worldH)

	if world != nil {
		op := &ebiten.DrawImageOptions{}
		op.GeoM.Translate(-cam.X, -cam.Y)
		screen.DrawImage(world, op)
	}

	for _, p := range a.registry.Players() {
		sx, sy := game.ToScreen(p.X, p.Y, cam)
		if !game.Visible(sx, sy, vw, vh, game.CullMargin) {
			continue
		}
		a.drawPlayer(screen, p, sx, sy)
	}

	if a.showDebug {
		ebitenutil.DebugPrint(screen, fmt.Sprintf(
			"pos: %.0f,%.0f cam: %.0f,%.0f players: %d fps: %.1f",
			local.X, local.Y, cam.X, cam.Y, a.registry.Len(), ebiten.ActualFPS()))
	}
	if a.session.Disconnected() {
		drawLabel(screen, "disconnected", vw/2, vh/2)
	}
}

// drawPlayer renders one avatar anchored bottom-center at the player's feet
// plus its name tag. A frame that has not decoded yet skips the body but
// still draws the tag.
func (a *App) drawPlayer(screen *ebiten.Image, p protocol.Player, sx, sy float64) {
	bodyH := float64(game.AvatarSize)
	frame, ok := a.avatars.Frame(p.Avatar, p.Facing, p.Frame)
	if ok {
		w := float64(frame.Bounds().Dx())
		h := float64(frame.Bounds().Dy())
		scale := game.FitScale(w, h, game.AvatarSize)
		dw, dh := w*scale, h*scale
		bodyH = dh

		op := &ebiten.DrawImageOptions{}
		op.GeoM.Scale(scale, scale)
		op.GeoM.Translate(sx-dw/2, sy-dh)
		screen.DrawImage(frame, op)
	}
	if p.Name != "" {
		drawLabel(screen, p.Name, sx, sy-bodyH-game.NameTagGap)
	}
}

// drawLabel draws centered text twice, an outline pass then a fill pass, so
// names stay legible over any background.
func drawLabel(screen *ebiten.Image, s string, cx, cy float64) {
	for _, off := range [...][2]float64{{-1, 0}, {1, 0}, {0, -1}, {0, 1}} {
		op := &text.DrawOptions{}
		op.GeoM.Translate(cx+off[0], cy+off[1])
		op.PrimaryAlign = text.AlignCenter
		op.SecondaryAlign = text.AlignEnd
		op.ColorScale.ScaleWithColor(color.Black)
		text.Draw(screen, s, nameFace, op)
	}
	op := &text.DrawOptions{}
	op.GeoM.Translate(cx, cy)
	op.PrimaryAlign = text.AlignCenter
	op.SecondaryAlign = text.AlignEnd
	op.ColorScale.ScaleWithColor(color.White)
	text.Draw(screen, s, nameFace, op)
}

// drawStatus covers the idle state: joining, join rejection, or an early
// disconnect before the first snapshot.
func (a *App) drawStatus(screen *ebiten.Image) {
	switch {
	case a.session.Disconnected():
		ebitenutil.DebugPrint(screen, "disconnected: "+a.session.Err())
	case a.session.Err() != "":
		ebitenutil.DebugPrint(screen, "join failed: "+a.session.Err())
	default:
		ebitenutil.DebugPrint(screen, "joining...")
	}
}

// Layout adopts the window size as the viewport so resizes re-clamp the
// camera on the next frame.
func (a *App) Layout(outsideWidth, outsideHeight int) (int, int) {
	if outsideWidth > 0 && outsideHeight > 0 {
		a.viewW, a.viewH = outsideWidth, outsideHeight
	}
	return a.viewW, a.viewH
}
