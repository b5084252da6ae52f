// Package client implements the Cards v5 HTTP API.
//
// CardClient maps the three service endpoints onto Go calls:
//
//	POST /card/v5                 PublishCard
//	GET  /card/v5/{id}            GetCard
//	POST /card/v5/actions/search  SearchCards
//
// Requests travel over a transport.Connection, which adds the
// "Authorization: Virgil <token>" header. The client does not verify cards
// or retry; the Card Manager in package cards does both.
//
// # Basic Usage
//
//	c := client.NewCardClientWithURL("https://api.virgilsecurity.com")
//
//	model, superseded, err := c.GetCard(ctx, cardID, token.String())
//	if client.IsAccessTokenExpired(err) {
//	    // obtain a new token and try again
//	}
//
// # Errors
//
// Non-2xx responses are returned as *HTTPError carrying the HTTP status and
// the service's {code, message} body. Code 20304 marks an expired access
// token; IsAccessTokenExpired matches it.
package client
