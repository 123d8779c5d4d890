package main

import (
	"encoding/json"
	"fmt"
	"image/png"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"markcanvas/internal/annotation"
	"markcanvas/internal/app"
	"markcanvas/internal/background"
	"markcanvas/internal/engine"
	"markcanvas/internal/event"
	"markcanvas/internal/shape"
	"markcanvas/internal/store"
	"markcanvas/internal/surface"
	"markcanvas/pkg/geometry"
)

// Script is a recorded input session.
type Script struct {
	// Image is an optional background. Without one, Content sets the
	// natural size.
	Image   string        `json:"image"`
	Content geometry.Size `json:"content"`
	View    geometry.Size `json:"view"`

	// Labels answer label requests in order. Once they run out the last
	// one is reused; an empty label rejects the request.
	Labels []annotation.LabelData `json:"labels"`

	Steps []Step `json:"steps"`
}

// Step is one scripted input.
type Step struct {
	// Op is one of down, up, move, leave, dblclick, wheel, keydown, keyup,
	// contextmenu, draw, select, fit.
	Op     string  `json:"op"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Button string  `json:"button,omitempty"`
	Delta  float64 `json:"delta,omitempty"`
	Key    string  `json:"key,omitempty"`
	Kind   string  `json:"kind,omitempty"`
	On     bool    `json:"on,omitempty"`
}

// LoadScript reads a replay script.
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}
	var s Script
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse script: %w", err)
	}
	if s.View.Empty() {
		s.View = geometry.Size{Width: 800, Height: 600}
	}
	return &s, nil
}

// Replay is the state of one replay run.
type Replay struct {
	Engine *engine.Engine
	Scene  *surface.Scene
	Image  *background.Image

	labels   []annotation.LabelData
	answered int
	log      zerolog.Logger
}

// NewReplay builds a headless engine sized for s.
func NewReplay(s *Script, opts engine.Options) (*Replay, error) {
	r := &Replay{
		Scene:  surface.NewScene(),
		labels: s.Labels,
		log:    opts.Logger,
	}
	r.Engine = engine.New(r.Scene, opts)
	r.Engine.Bus().On(event.Complete, r.answer)

	content := s.Content
	if s.Image != "" {
		bg, err := background.Load(s.Image)
		if err != nil {
			return nil, err
		}
		r.Image = bg
		r.Scene.SetBackground(bg.Image)
		content = bg.Size()
	}
	r.Engine.Resize(s.View)
	if !content.Empty() {
		r.Engine.SetBackground(content)
	}
	return r, nil
}

func (r *Replay) answer(data interface{}) {
	req, ok := data.(*engine.LabelRequest)
	if !ok {
		return
	}
	label := annotation.LabelData{}
	switch {
	case r.answered < len(r.labels):
		label = r.labels[r.answered]
	case len(r.labels) > 0:
		label = r.labels[len(r.labels)-1]
	}
	r.answered++

	var err error
	if label.Label == "" {
		err = req.Reject()
	} else {
		err = req.Resolve(label)
	}
	if err != nil {
		r.log.Warn().Err(err).Str("object", req.ObjectID).Msg("label answer failed")
	}
}

// Run feeds every step to the engine.
func (r *Replay) Run(steps []Step) error {
	eng := r.Engine
	for i, st := range steps {
		pe := engine.PointerEvent{Position: geometry.Point2D{X: st.X, Y: st.Y}, Button: parseButton(st.Button)}
		switch st.Op {
		case "down":
			if pe.Button == engine.ButtonNone {
				pe.Button = engine.ButtonPrimary
			}
			eng.PointerDown(pe)
		case "up":
			if pe.Button == engine.ButtonNone {
				pe.Button = engine.ButtonPrimary
			}
			eng.PointerUp(pe)
		case "move":
			eng.PointerMove(pe)
		case "leave":
			eng.PointerLeave()
		case "dblclick":
			pe.Button = engine.ButtonPrimary
			eng.DoubleClick(pe)
		case "wheel":
			eng.Wheel(engine.WheelEvent{Position: pe.Position, Delta: st.Delta})
		case "keydown":
			eng.KeyDown(engine.Key(st.Key))
		case "keyup":
			eng.KeyUp(engine.Key(st.Key))
		case "contextmenu":
			pe.Button = engine.ButtonSecondary
			eng.ContextMenu(pe)
		case "draw":
			kind, err := shape.ParseKind(st.Kind)
			if err != nil {
				return fmt.Errorf("step %d: %w", i, err)
			}
			if _, err := eng.SetDrawKind(kind); err != nil {
				return fmt.Errorf("step %d: %w", i, err)
			}
		case "select":
			eng.SetSelectMode(st.On)
		case "fit":
			eng.Fit()
		default:
			return fmt.Errorf("step %d: unknown op %q", i, st.Op)
		}
	}
	return nil
}

func parseButton(s string) engine.Button {
	switch s {
	case "primary", "left":
		return engine.ButtonPrimary
	case "secondary", "right":
		return engine.ButtonSecondary
	case "middle", "tertiary":
		return engine.ButtonTertiary
	}
	return engine.ButtonNone
}

// WritePNG renders the current view to path.
func (r *Replay) WritePNG(path string, view geometry.Size) error {
	img := r.Scene.Paint(int(view.Width), int(view.Height))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode png: %w", err)
	}
	return f.Close()
}

func newReplayCmd(g *globals) *cobra.Command {
	var (
		outPath string
		pngPath string
		dbPath  string
		key     string
	)

	cmd := &cobra.Command{
		Use:   "replay <script.json>",
		Short: "Replay an input script and export the resulting annotations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := g.settings(cmd)
			if err != nil {
				return err
			}

			script, err := LoadScript(args[0])
			if err != nil {
				return err
			}

			r, err := NewReplay(script, engine.OptionsFromConfig(cfg, log))
			if err != nil {
				return err
			}
			defer r.Engine.Close()

			if err := r.Run(script.Steps); err != nil {
				return err
			}
			records := r.Engine.Export()
			log.Info().Int("steps", len(script.Steps)).Int("annotations", len(records)).Msg("replay finished")

			if outPath != "" {
				if err := app.WriteRecords(outPath, records); err != nil {
					return err
				}
			} else {
				data, err := json.MarshalIndent(records, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
			}

			if pngPath != "" {
				if err := r.WritePNG(pngPath, script.View); err != nil {
					return err
				}
			}

			if dbPath != "" {
				if key == "" {
					key = script.Image
				}
				if key == "" {
					key = args[0]
				}
				st, err := store.Open(dbPath, log)
				if err != nil {
					return err
				}
				defer st.Close()
				if err := st.Save(key, r.Engine.Content(), records); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "write the exported JSON here instead of stdout")
	cmd.Flags().StringVar(&pngPath, "png", "", "render the final view to a PNG file")
	cmd.Flags().StringVar(&dbPath, "db", "", "save the annotations to this store")
	cmd.Flags().StringVar(&key, "key", "", "store key (defaults to the image path)")
	return cmd
}
