// Package http provides request and response helpers for handlers served
// behind the routing.Services middleware.
//
// # Request
//
//	req := gohttp.NewRequest(r)
//
//	// Request-scoped services
//	c := req.Services()                        // *container.Container
//	conn, err := gohttp.Service[*sql.Conn](r)  // typed, context-aware
//
//	// Per-request replacement, for tests and feature flags
//	gohttp.ReplaceValue(r, container.TypeOf[Mailer](), fakeMailer)
//
//	// Body and params
//	var payload struct{ Name string `json:"name"` }
//	err := req.Bind(&payload)
//	id := req.RouteParam("id")
//	page := req.Query("page", "1")
//
// # Response
//
//	res := gohttp.NewResponse(w)
//
//	res.Success(data)             // 200 {"data": ...}
//	res.Created(data)             // 201 {"data": ...}
//	res.NoContent()               // 204
//	res.Error(400, "bad input")   // {"message": "bad input"}
//	res.NotFound()                // 404 {"message": "Not found."}
//	res.ServerError()             // 500 {"message": "Server Error."}
//	res.Health(report)            // 200 or 503 {"status": ..., "services": {...}}
package http
