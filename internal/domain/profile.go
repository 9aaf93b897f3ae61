package domain

import (
	"time"

	"github.com/google/uuid"
)

// Profile is the caller-visible output of one analysis run: every signal
// from every wave, successful or not, plus the wall-clock duration.
type Profile struct {
	ID          uuid.UUID     `json:"id"`
	ImagePath   string        `json:"image_path"`
	Caption     string        `json:"caption,omitempty"`
	Signals     []Signal      `json:"signals"`
	SignalCount int           `json:"signal_count"`
	Duration    time.Duration `json:"duration"`
	Embedding   []float32     `json:"-"`
	CreatedAt   time.Time     `json:"created_at"`
}

func NewProfile(imagePath string) *Profile {
	return &Profile{
		ID:        uuid.New(),
		ImagePath: imagePath,
		Signals:   []Signal{},
		CreatedAt: time.Now().UTC(),
	}
}

func (p *Profile) AddSignals(signals []Signal) {
	p.Signals = append(p.Signals, signals...)
	p.SignalCount = len(p.Signals)
}

// GetAllSignals returns every recorded signal in the order waves emitted
// them.
func (p *Profile) GetAllSignals() []Signal {
	return p.Signals
}

func (p *Profile) ErrorSignals() []Signal {
	var out []Signal
	for _, s := range p.Signals {
		if s.IsError() {
			out = append(out, s)
		}
	}
	return out
}

// NewContext rehydrates the profile's signals into a fresh AnalysisContext
// for a second pass, such as contradiction detection after the run.
func (p *Profile) NewContext() *AnalysisContext {
	ac := NewAnalysisContext()
	ac.AddSignals(p.Signals)
	return ac
}
