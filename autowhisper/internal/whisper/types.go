package whisper

import "time"

// Model is a loaded whisper model, reusable across many transcription
// contexts.
type Model interface {
	Close() error
	IsMultilingual() bool
	Languages() []string
	NewContext() (Context, error)
}

// EncoderBeginCallback is invoked before the encoder runs; returning false
// aborts processing.
type EncoderBeginCallback func() bool

// SegmentCallback is invoked once per newly-decoded segment during Process.
type SegmentCallback func(Segment)

// ProgressCallback is invoked periodically during Process with a percent
// complete value in [0, 100].
type ProgressCallback func(percent int)

// Token is a single decoded token with its timing and probability.
type Token struct {
	Id    int
	Text  string
	P     float32
	Start time.Duration
	End   time.Duration
}

// Segment is a contiguous decoded span of text.
type Segment struct {
	Num    int
	Text   string
	Start  time.Duration
	End    time.Duration
	Tokens []Token
}

// Context drives a single transcription pass over a loaded Model.
type Context interface {
	SetLanguage(lang string) error
	IsMultilingual() bool
	Language() string
	DetectedLanguage() string

	SetTranslate(v bool)
	SetSplitOnWord(v bool)
	SetThreads(v uint)
	SetOffset(v time.Duration)
	SetDuration(v time.Duration)
	SetTokenThreshold(t float32)
	SetTokenSumThreshold(t float32)
	SetMaxSegmentLength(n uint)
	SetTokenTimestamps(b bool)
	SetMaxTokensPerSegment(n uint)
	SetAudioCtx(n uint)
	SetMaxContext(n int)
	SetBeamSize(n int)
	SetEntropyThold(t float32)
	SetInitialPrompt(prompt string)
	SetTemperature(t float32)
	SetTemperatureFallback(t float32)

	ResetTimings()
	PrintTimings()
	SystemInfo() string

	Process(data []float32, enc EncoderBeginCallback, seg SegmentCallback, prog ProgressCallback) error
	NextSegment() (Segment, error)

	IsText(t Token) bool
	IsBEG(t Token) bool
	IsSOT(t Token) bool
	IsEOT(t Token) bool
	IsPREV(t Token) bool
	IsSOLM(t Token) bool
	IsNOT(t Token) bool
	IsLANG(t Token, lang string) bool

	Close() error
}
