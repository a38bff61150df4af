// Package tokensource stores the backend API key and exposes it as an
// oauth2.TokenSource, so backend requests can be authenticated by an
// oauth2.Transport in the HTTP client chain.
//
// OpenAI-compatible servers authenticate with a static bearer key. Local
// servers such as LM Studio usually need none at all, in which case New
// returns a nil TokenSource and requests go out without credentials.
//
// # Stores
//
// Keys are read from one of three stores:
//
//	env := tokensource.NewEnvStore("LMSTUDIO_API_KEY")         // read-only
//	file := tokensource.NewFileStore("~/.config/messagebridge/api-key")
//	ring := tokensource.NewKeyringStore("messagebridge", "backend")
//
// Writing an empty key clears the stored key.
//
// # Token Sources
//
//	ts, err := tokensource.New(ctx, store)
//	// ts is nil when no key is stored
//	transport := &oauth2.Transport{Source: ts, Base: http.DefaultTransport}
package tokensource
