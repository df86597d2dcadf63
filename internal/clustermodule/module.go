// Package clustermodule implements C5, the capability a cluster node
// gains once it has SSH access and a private key: installing and
// configuring one piece of cluster software. The Spark variant is the
// only one flintrock ships today, but orchestrator code is written
// entirely against the Module interface.
package clustermodule

import (
	"context"

	"github.com/Nyansa/flintrock/internal/cluster"
	"github.com/Nyansa/flintrock/internal/sshtransport"
)

// Module installs and configures one piece of software on every node of
// a cluster. Configure is master/slave-agnostic; ConfigureMaster and
// ConfigureSlave run the role-specific follow-up.
type Module interface {
	Name() string
	Install(ctx context.Context, session *sshtransport.Session, info cluster.ClusterInfo) error
	Configure(ctx context.Context, session *sshtransport.Session, info cluster.ClusterInfo) error
	ConfigureMaster(ctx context.Context, session *sshtransport.Session, info cluster.ClusterInfo) error
	ConfigureSlave(ctx context.Context, session *sshtransport.Session, info cluster.ClusterInfo) error
	HealthCheck(ctx context.Context, masterHost string) (*HealthReport, error)
}

// WorkerInfo mirrors one entry of the Spark standalone master's
// /json/ endpoint "workers" array.
type WorkerInfo struct {
	ID           string `json:"id"`
	Host         string `json:"host"`
	Port         int    `json:"port"`
	WebUIAddress string `json:"webuiaddress"`
	Cores        int    `json:"cores"`
	CoresUsed    int    `json:"coresused"`
	CoresFree    int    `json:"coresfree"`
	Memory       int    `json:"memory"`
	MemoryUsed   int    `json:"memoryused"`
	MemoryFree   int    `json:"memoryfree"`
	State        string `json:"state"`
}

// HealthReport is the parsed response of a module's health endpoint plus
// a human-readable rendering of it.
type HealthReport struct {
	Status  string
	Workers []WorkerInfo
	Cores   int
	Memory  int
	Summary string
}
