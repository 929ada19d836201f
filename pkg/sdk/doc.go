// Package hybridchat provides a Go client for the hybridchat HTTP API.
//
// The service routes each query either to a web-search agent or to a direct
// language model answer. The client exposes the chat, health and usage
// endpoints.
//
//	client, _ := hybridchat.New("http://localhost:5000",
//	    hybridchat.WithAPIKey(os.Getenv("HYBRIDCHAT_API_KEY")),
//	)
//	ans, err := client.Chat(ctx, "What happened in the news today?")
//	if err != nil {
//	    return err
//	}
//	fmt.Println(ans.Text, ans.Route, ans.Path)
//
// Errors returned by the service are reported as *APIError and match the
// sentinel errors of this package with errors.Is.
package hybridchat
