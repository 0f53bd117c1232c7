package io

import (
	"path/filepath"
	"strings"
)

// Format is a document encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the format from a file extension. Anything other
// than .yaml or .yml is treated as JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Document is the serialised form of a netlist or device graph.
type Document struct {
	Name   string         `json:"name,omitempty" yaml:"name,omitempty"`
	Part   string         `json:"part,omitempty" yaml:"part,omitempty"`
	Fabric *FabricSpec    `json:"fabric,omitempty" yaml:"fabric,omitempty"`
	Meta   map[string]any `json:"meta,omitempty" yaml:"meta,omitempty"`
	Nodes  []NodeSpec     `json:"nodes" yaml:"nodes"`
	Edges  []EdgeSpec     `json:"edges" yaml:"edges"`
}

// FabricSpec names the routing model of a device.
type FabricSpec struct {
	Kind          string `json:"kind" yaml:"kind"` // direct, hops or matrix
	MaxHops       int    `json:"max_hops,omitempty" yaml:"max_hops,omitempty"`
	CrossCapacity int    `json:"cross_capacity,omitempty" yaml:"cross_capacity,omitempty"`
	Key           string `json:"key,omitempty" yaml:"key,omitempty"`
}

// NodeSpec is one node of a document.
type NodeSpec struct {
	Name       string         `json:"name" yaml:"name"`
	Label      string         `json:"label" yaml:"label"`
	Alternates []string       `json:"alternates,omitempty" yaml:"alternates,omitempty"`
	Inputs     []string       `json:"inputs,omitempty" yaml:"inputs,omitempty"`
	Outputs    []string       `json:"outputs,omitempty" yaml:"outputs,omitempty"`
	Ports      []PortSpec     `json:"ports,omitempty" yaml:"ports,omitempty"`
	Meta       map[string]any `json:"meta,omitempty" yaml:"meta,omitempty"`
}

// PortSpec is an explicitly directed port.
type PortSpec struct {
	Name string `json:"name" yaml:"name"`
	Dir  string `json:"dir" yaml:"dir"`
}

// EdgeSpec connects an output port to an input port by node name.
type EdgeSpec struct {
	From     string `json:"from" yaml:"from"`
	FromPort string `json:"from_port" yaml:"from_port"`
	To       string `json:"to" yaml:"to"`
	ToPort   string `json:"to_port" yaml:"to_port"`
}

func (e EdgeSpec) String() string {
	return e.From + "." + e.FromPort + " -> " + e.To + "." + e.ToPort
}
