// Package target holds the console's notion of "what am I operating on".
//
// A Selection is exactly one of:
//   - nothing (NoneLabel),
//   - a Device discovered by the backend, or
//   - a NetworkTarget, itself either a WiFi network (BSSID) or a subnet
//     (CIDR, optionally tied to the interface it was derived from).
//
// The Model is the sole owner of the current Selection. Other components
// keep a *Model handle and read through Current; they never hold copies
// they later write back.
//
//	m := target.NewModel()
//	m.SelectDevice(target.Device{ID: "d1", IP: "10.0.0.5"})
//	net, _ := target.WiFi("AA:BB:CC:DD:EE:FF", "corp", 6)
//	m.SelectNetwork(net) // device is cleared
//	fmt.Println(m.DisplayLabel()) // [WiFi] corp (AA:BB:CC:DD:EE:FF)
package target
