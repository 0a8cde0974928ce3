// Package backend provides an HTTP client for the VoidPWN dashboard API.
//
// The client covers every call the console depends on: selection sync,
// action and scenario dispatch, the WiFi scan lifecycle, live logs, reports,
// the device inventory and system health.
//
// # Usage
//
//	client := backend.NewClientWithURL("http://10.0.0.1:5000")
//	client.SetTimeout(5 * time.Second)
//
//	logs, err := client.LiveLogs(ctx)
//	if err != nil {
//	    fmt.Println(backend.OperatorMessage(err))
//	    fmt.Println(backend.TroubleshootingHint(err))
//	}
//
// # Error Handling
//
// All failures are *Error values classified by ErrorType. A response body
// carrying {"error": "..."} is an ErrTypeBackend error whatever its HTTP
// status, and the backend's text is kept verbatim in BackendText so the
// operator sees exactly what the device reported. Nothing is retried.
package backend
