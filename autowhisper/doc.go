// Package autowhisper provides a simple cross-OS API over whisper.cpp Go bindings.
//
// A model is loaded once from the bytes of a whisper GGML model file with
// LoadModelFromBytes and reused across calls. TranscribeWithModel takes
// interleaved 16-bit PCM (one or two channels, any sample rate) and converts
// it to 16 kHz mono before running transcription.
//
// Example:
//
//	data, err := os.ReadFile("/path/to/ggml-tiny.bin")
//	if err != nil { log.Fatal(err) }
//	m, err := autowhisper.LoadModelFromBytes(data)
//	if err != nil { log.Fatal(err) }
//	defer m.Close()
//	text, err := autowhisper.TranscribeWithModel(m, pcm, 44100, 2, autowhisper.Options{Language: "en"})
//	if err != nil { log.Fatal(err) }
//	fmt.Println(text)
package autowhisper
