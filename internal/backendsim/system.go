package backendsim

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
	netutil "github.com/shirou/gopsutil/v3/net"

	"github.com/void0x11/VoidPWN/internal/backend"
	"github.com/void0x11/VoidPWN/internal/target"
)

// AttackAdapter is the interface name the dashboard looks for when
// reporting adapter state
const AttackAdapter = "wlan1"

// SystemSource produces the /api/system payload
type SystemSource interface {
	SystemInfo() (backend.SystemInfo, error)
}

// StaticSystem always reports the same values
type StaticSystem backend.SystemInfo

// SystemInfo implements SystemSource
func (s StaticSystem) SystemInfo() (backend.SystemInfo, error) {
	return backend.SystemInfo(s), nil
}

// HostSystem reports the machine the simulator runs on
type HostSystem struct {
	// Sample is the CPU sampling window (non-blocking when zero)
	Sample time.Duration
}

// SystemInfo implements SystemSource. Individual readings that fail leave
// their field at "N/A" or zero.
func (h HostSystem) SystemInfo() (backend.SystemInfo, error) {
	info := backend.SystemInfo{
		IP:      "N/A",
		Uptime:  "N/A",
		Temp:    "N/A",
		Adapter: "NOT FOUND",
		Memory:  "N/A",
		Disk:    "N/A",
	}

	if pct, err := cpu.Percent(h.Sample, false); err == nil && len(pct) > 0 {
		info.CPU = round1(pct[0])
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		info.Memory = fmt.Sprintf("%d MB / %d MB", vm.Used/(1<<20), vm.Total/(1<<20))
		info.MemPercent = round1(vm.UsedPercent)
	}
	if du, err := disk.Usage("/"); err == nil {
		info.Disk = fmt.Sprintf("%d GB / %d GB", du.Used/(1<<30), du.Total/(1<<30))
		info.DiskPercent = round1(du.UsedPercent)
	}
	if up, err := host.Uptime(); err == nil {
		info.Uptime = FormatUptime(time.Duration(up) * time.Second)
	}
	if temps, err := host.SensorsTemperatures(); err == nil {
		for _, t := range temps {
			if t.Temperature > 0 {
				info.Temp = fmt.Sprintf("%.1f'C", t.Temperature)
				break
			}
		}
	}

	ifaces, err := netutil.Interfaces()
	if err != nil {
		return info, nil
	}
	for _, iface := range ifaces {
		if iface.Name == AttackAdapter {
			info.Adapter = "DETECTED"
		}
	}
	if list := interfacesFrom(ifaces); len(list) > 0 {
		info.IP = list[0].IP
	}
	return info, nil
}

// HostInterfaces lists the host's IPv4 interfaces, loopback excluded
func HostInterfaces() ([]target.Interface, error) {
	ifaces, err := netutil.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("list interfaces: %w", err)
	}
	return interfacesFrom(ifaces), nil
}

func interfacesFrom(stats netutil.InterfaceStatList) []target.Interface {
	out := []target.Interface{}
	for _, st := range stats {
		if isLoopback(st.Flags) {
			continue
		}
		for _, addr := range st.Addrs {
			ip, _, err := net.ParseCIDR(addr.Addr)
			if err != nil || ip.To4() == nil || ip.IsLoopback() {
				continue
			}
			out = append(out, target.Interface{Name: st.Name, IP: ip.String()})
			break
		}
	}
	return out
}

func isLoopback(flags []string) bool {
	for _, f := range flags {
		if strings.EqualFold(f, "loopback") {
			return true
		}
	}
	return false
}

// FormatUptime renders a duration the way `uptime -p` does, without the
// leading "up": "3 days, 2 hours, 1 minute".
func FormatUptime(d time.Duration) string {
	minutes := int(d / time.Minute)
	days := minutes / (24 * 60)
	hours := (minutes / 60) % 24
	minutes %= 60

	var parts []string
	add := func(n int, unit string) {
		if n == 0 {
			return
		}
		if n != 1 {
			unit += "s"
		}
		parts = append(parts, fmt.Sprintf("%d %s", n, unit))
	}
	add(days, "day")
	add(hours, "hour")
	add(minutes, "minute")
	if len(parts) == 0 {
		return "0 minutes"
	}
	return strings.Join(parts, ", ")
}

func round1(f float64) float64 {
	return float64(int(f*10+0.5)) / 10
}
