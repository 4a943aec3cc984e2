package memory

import (
	"runtime"
)

type MemoryModule struct {}

func NewMemoryModule() *MemoryModule {
	return &MemoryModule{}
}

// ListProcesses returns a mock list of processes
func (m *MemoryModule) ListProcesses() interface{} {
	// Return mock process data for demo purposes
	processes := []map[string]interface{}{
		{
			"pid":    1234,
			"name":   "explorer.exe",
			"ppid":   1000,
			"threads": 25,
			"handles": 1500,
		},
		{
			"pid":    5678,
			"name":   "chrome.exe",
			"ppid":   1234,
			"threads": 45,
			"handles": 2000,
		},
		{
			"pid":    9012,
			"name":   "notepad.exe",
			"ppid":   1234,
			"threads": 2,
			"handles": 50,
		},
		{
			"pid":    3456,
			"name":   "svchost.exe",
			"ppid":   500,
			"threads": 15,
			"handles": 800,
		},
	}
	return processes
}

// GetProcessInfo returns info for a specific process
func (m *MemoryModule) GetProcessInfo(pid int) map[string]interface{} {
	// Mock process info
	return map[string]interface{}{
		"pid":     pid,
		"name":    "process.exe",
		"ppid":    1000,
		"threads": 10,
		"handles": 500,
		"memory":  1024 * 1024 * 50, // 50MB
	}
}

// FindProcessByName finds processes by name
func (m *MemoryModule) FindProcessByName(name string) []map[string]interface{} {
	// Mock implementation
	if name == "explorer.exe" || name == "Explorer.exe" {
		return []map[string]interface{}{
			{
				"pid":     1234,
				"name":    "explorer.exe",
				"ppid":    1000,
				"threads": 25,
				"handles": 1500,
			},
		}
	}
	return []map[string]interface{}{}
}

// GetProcessTree returns the process tree
func (m *MemoryModule) GetProcessTree() map[string]interface{} {
	processes := m.ListProcesses().([]map[string]interface{})
	
	// Find root processes (ppid = 0 or small)
	var roots []map[string]interface{}
	for _, p := range processes {
		if ppid, ok := p["ppid"].(int); ok && ppid <= 1000 {
			roots = append(roots, p)
		}
	}
	
	return map[string]interface{}{
		"total_processes": len(processes),
		"roots": roots,
		"tree":  processes,
	}
}

// GetMemoryRegions returns memory regions for a process
func (m *MemoryModule) GetMemoryRegions(pid int) []map[string]interface{} {
	// Mock memory regions
	return []map[string]interface{}{
		{
			"base":       "0x00400000",
			"size":       1024 * 1024, // 1MB
			"protection": "RX",
			"state":      "Commit",
			"type":       "Image",
		},
		{
			"base":       "0x7FFF0000",
			"size":       64 * 1024, // 64KB
			"protection": "RW",
			"state":      "Commit",
			"type":       "Private",
		},
	}
}

// DetectHollowing detects process hollowing
func (m *MemoryModule) DetectHollowing() []map[string]interface{} {
	// Mock detection results
	return []map[string]interface{}{}
}

// DetectInjection detects code injection
func (m *MemoryModule) DetectInjection() []map[string]interface{} {
	// Mock detection results  
	return []map[string]interface{}{}
}

// ScanForMalware scans memory for malware
func (m *MemoryModule) ScanForMalware() []map[string]interface{} {
	// Mock scan results
	return []map[string]interface{}{}
}

// GetMemoryStats returns memory statistics
func (m *MemoryModule) GetMemoryStats() map[string]interface{} {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	
	return map[string]interface{}{
		"alloc":       memStats.Alloc,
		"total_alloc": memStats.TotalAlloc,
		"sys":         memStats.Sys,
		"num_gc":      memStats.NumGC,
	}
}

// DumpProcessMemory dumps process memory (mock)
func (m *MemoryModule) DumpProcessMemory(pid interface{}, outputPath string) string {
	return "Memory dumped to " + outputPath
}

// DetectProcessHollowing detects process hollowing
func (m *MemoryModule) DetectProcessHollowing() []map[string]interface{} {
	return []map[string]interface{}{}
}

// AnalyzeInjection analyzes code injection
func (m *MemoryModule) AnalyzeInjection(pid interface{}) map[string]interface{} {
	return map[string]interface{}{
		"injected": false,
		"findings": []string{},
	}
}

// GetProcessChildren gets child processes
func (m *MemoryModule) GetProcessChildren(pid interface{}) []map[string]interface{} {
	return []map[string]interface{}{}
}

// AnalyzeProcessTree analyzes the process tree
func (m *MemoryModule) AnalyzeProcessTree() map[string]interface{} {
	return m.GetProcessTree()
}