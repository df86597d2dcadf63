package clustermodule

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Nyansa/flintrock/internal/cluster"
	flintrockerrors "github.com/Nyansa/flintrock/internal/errors"
	"github.com/Nyansa/flintrock/internal/sshtransport"
	"github.com/Nyansa/flintrock/internal/template"
)

// masterUIPort is the Spark standalone master's web UI port, fixed the
// same way original_source hardcodes it rather than exposing it as a
// per-module option.
const masterUIPort = 8080

// masterUIPollInterval matches original_source's curl loop, which sleeps
// 1 second between each readiness check.
const masterUIPollInterval = 1 * time.Second

// Spark installs and configures Apache Spark in standalone mode.
type Spark struct {
	Version string

	// MasterUITimeout bounds how long ConfigureMaster waits for the
	// master's web UI to answer before failing with a TimeoutError; the
	// source waits unboundedly.
	MasterUITimeout time.Duration

	distribution string
}

// NewSpark returns a Spark module for the given release, built with the
// same hadoop1 distribution original_source always requests.
func NewSpark(version string, masterUITimeout time.Duration) *Spark {
	return &Spark{Version: version, MasterUITimeout: masterUITimeout, distribution: "hadoop1"}
}

func (s *Spark) Name() string { return "spark" }

func clusterInfoBindings(info cluster.ClusterInfo) map[string]string {
	return map[string]string{
		"name":              info.Name,
		"master_host":       info.MasterHost,
		"slave_hosts":       strings.Join(info.SlaveHosts, "\n"),
		"spark_scratch_dir": info.SparkScratchDir,
		"spark_master_opts": info.SparkMasterOpts,
	}
}

func (s *Spark) Install(ctx context.Context, session *sshtransport.Session, info cluster.ClusterInfo) error {
	script, err := readTemplate("install-spark.sh")
	if err != nil {
		return fmt.Errorf("reading install-spark.sh template: %w", err)
	}
	rendered := template.Render(script, clusterInfoBindings(info))

	const remotePath = "/tmp/install-spark.sh"
	if err := sshtransport.Upload(session, remotePath, []byte(rendered), 0755); err != nil {
		return &flintrockerrors.ModuleInstallFailed{Module: s.Name(), Version: s.Version, Cause: err}
	}

	cmd := fmt.Sprintf("%s %s %s", remotePath, s.Version, s.distribution)
	if _, err := sshtransport.Run(ctx, session, cmd); err != nil {
		return &flintrockerrors.ModuleInstallFailed{Module: s.Name(), Version: s.Version, Cause: err}
	}
	return nil
}

func (s *Spark) Configure(ctx context.Context, session *sshtransport.Session, info cluster.ClusterInfo) error {
	script, err := readTemplate("spark-env.sh")
	if err != nil {
		return fmt.Errorf("reading spark-env.sh template: %w", err)
	}
	rendered := template.Render(script, clusterInfoBindings(info))

	if err := sshtransport.Upload(session, "spark/conf/spark-env.sh", []byte(rendered), 0644); err != nil {
		return fmt.Errorf("writing spark-env.sh: %w", err)
	}
	return nil
}

func (s *Spark) ConfigureMaster(ctx context.Context, session *sshtransport.Session, info cluster.ClusterInfo) error {
	slaves := strings.Join(info.SlaveHosts, "\n")
	if err := sshtransport.Upload(session, "spark/conf/slaves", []byte(slaves+"\n"), 0644); err != nil {
		return fmt.Errorf("writing spark/conf/slaves: %w", err)
	}

	if _, err := sshtransport.Run(ctx, session, "spark/sbin/start-master.sh"); err != nil {
		return fmt.Errorf("running start-master.sh: %w", err)
	}

	if err := s.waitForMasterUI(ctx, info.MasterHost); err != nil {
		return err
	}

	if _, err := sshtransport.Run(ctx, session, "spark/sbin/start-slaves.sh"); err != nil {
		return fmt.Errorf("running start-slaves.sh: %w", err)
	}
	return nil
}

// waitForMasterUI polls the master's web UI with a fixed 1-second
// backoff until it answers, a bounded deadline, or ctx is done.
// original_source's equivalent shell loop never bounds this; §9 calls
// for a deadline here so a broken master does not hang launch forever.
func (s *Spark) waitForMasterUI(ctx context.Context, masterHost string) error {
	deadline := s.MasterUITimeout
	if deadline <= 0 {
		deadline = 5 * time.Minute
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	url := fmt.Sprintf("http://%s:%d", masterHost, masterUIPort)

	for {
		req, err := http.NewRequestWithContext(timeoutCtx, http.MethodGet, url, nil)
		if err == nil {
			resp, err := http.DefaultClient.Do(req)
			if err == nil {
				resp.Body.Close()
				if resp.StatusCode == http.StatusOK {
					return nil
				}
			}
		}

		select {
		case <-timeoutCtx.Done():
			return &flintrockerrors.TimeoutError{Op: fmt.Sprintf("waiting for master UI at %s", url), Elapsed: deadline.String()}
		case <-time.After(masterUIPollInterval):
		}
	}
}

func (s *Spark) ConfigureSlave(ctx context.Context, session *sshtransport.Session, info cluster.ClusterInfo) error {
	return nil
}

func (s *Spark) HealthCheck(ctx context.Context, masterHost string) (*HealthReport, error) {
	url := fmt.Sprintf("http://%s:%d/json/", masterHost, masterUIPort)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &flintrockerrors.HealthCheckFailed{MasterHost: masterHost, Cause: err}
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, &flintrockerrors.HealthCheckFailed{MasterHost: masterHost, Cause: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &flintrockerrors.HealthCheckFailed{MasterHost: masterHost, Cause: err}
	}

	var payload struct {
		Status  string       `json:"status"`
		Workers []WorkerInfo `json:"workers"`
		Cores   int          `json:"cores"`
		Memory  int          `json:"memory"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &flintrockerrors.HealthCheckFailed{MasterHost: masterHost, Cause: err}
	}

	report := &HealthReport{
		Status:  payload.Status,
		Workers: payload.Workers,
		Cores:   payload.Cores,
		Memory:  payload.Memory,
	}
	report.Summary = fmt.Sprintf(
		"Spark Health Report:\n  * Master: %s\n  * Workers: %d\n  * Cores: %d\n  * Memory: %.1f GB",
		report.Status, len(report.Workers), report.Cores, float64(report.Memory)/1024,
	)
	return report, nil
}
