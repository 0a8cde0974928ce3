// Package discovery finds VoidPWN dashboards on the local network over mDNS.
//
// Dashboards are browsed as "_http._tcp" services. An entry is accepted when
// its TXT record carries "app=voidpwn" or its instance or host name starts
// with "voidpwn". Entries without an address are dropped, IPv4 is preferred,
// and a missing port means the dashboard default of 5000.
//
// # Usage Example
//
//	backends, err := discovery.Discover(ctx, 5*time.Second)
//	if err != nil {
//	    return err
//	}
//	for _, b := range backends {
//	    fmt.Println(b.Name, b.BaseURL())
//	}
//
// Advertise is the other half: the backend simulator uses it so a console on
// another machine can find it the same way it finds a real device.
//
// # Network Requirements
//
//   - Requires multicast support on the network interface
//   - The backend must be on the same local network segment
//   - Firewall must allow mDNS (UDP port 5353)
package discovery
