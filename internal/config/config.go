// Package config loads the gateway's boot-time configuration from YAML
// (spec §6 "Configuration inputs"), mirroring doismellburning/samoyed's
// config.c in spirit: one struct covering every subsystem, defaults filled
// in for anything the file omits.
package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/n0call/aprsgw/internal/geo"
)

// Config is the root of the gateway's boot-time configuration.
type Config struct {
	Server struct {
		Port       int `yaml:"port"`
		MaxClients int `yaml:"max_clients"`
	} `yaml:"server"`

	Digipeater struct {
		Callsign       string   `yaml:"callsign"`
		SSID           int      `yaml:"ssid"`
		Aliases        []string `yaml:"aliases"`
		MaxHops        int      `yaml:"max_hops"`
		DedupWindowMS  int      `yaml:"dedup_window_ms"`
		FloodWindowMS  int      `yaml:"flood_window_ms"`
		MaxFloodRate   int      `yaml:"max_flood_rate"`
		ViscousDelayMS int      `yaml:"viscous_delay_ms"`
		FillIn         bool     `yaml:"fill_in"`
		Preemptive     bool     `yaml:"preemptive"`
	} `yaml:"digipeater"`

	RFGate struct {
		RFToIS       bool    `yaml:"rf_to_is"`
		ISToRF       bool    `yaml:"is_to_rf"`
		ISToRFType   string  `yaml:"is_to_rf_type"` // all | heard | message_only
		LocalRangeKm float64 `yaml:"local_range_km"`
		MaxRFRate    int     `yaml:"max_rf_rate"`
		MaxHopsToRF  int     `yaml:"max_hops_to_rf"`

		GateMessages  bool `yaml:"gate_messages"`
		GatePositions bool `yaml:"gate_positions"`
		GateWeather   bool `yaml:"gate_weather"`
		GateTelemetry bool `yaml:"gate_telemetry"`
		GateObjects   bool `yaml:"gate_objects"`
	} `yaml:"rf_gate"`

	APRSIS struct {
		Server   string `yaml:"server"`
		Port     int    `yaml:"port"`
		Callsign string `yaml:"callsign"`
		Passcode int    `yaml:"passcode"`
		Filter   string `yaml:"filter"`
		Software string `yaml:"software"`
		Version  string `yaml:"version"`
	} `yaml:"aprs_is"`

	KISS struct {
		SerialPort  string `yaml:"serial_port"`
		SerialBaud  int    `yaml:"serial_baud"`
		TCPAddr     string `yaml:"tcp_addr"`
	} `yaml:"kiss"`

	UDP struct {
		Addr string `yaml:"addr"`
	} `yaml:"udp"`

	Beacon struct {
		IntervalSeconds int     `yaml:"interval_seconds"`
		Comment         string  `yaml:"comment"`
		Latitude        float64 `yaml:"latitude"`
		Longitude       float64 `yaml:"longitude"`
		HasFix          bool    `yaml:"has_fix"`
		Symbol          string  `yaml:"symbol"`

		// UTM, if UTMZone is non-zero, gives the fixed position as a UTM
		// coordinate instead of decimal degrees; Load converts it to
		// Latitude/Longitude so the rest of the gateway only ever deals
		// in decimal degrees.
		UTMZone     int     `yaml:"utm_zone"`
		UTMHemisphere string `yaml:"utm_hemisphere"` // "N" or "S"
		UTMEasting  float64 `yaml:"utm_easting"`
		UTMNorthing float64 `yaml:"utm_northing"`
	} `yaml:"beacon"`

	Advertise bool `yaml:"advertise_dnssd"`
}

// Load reads and parses a YAML configuration file, applying defaults for
// any field the file omits.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	applyDefaults(&cfg)
	if err := resolveBeaconUTM(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// resolveBeaconUTM converts a UTM-specified beacon position to decimal
// degrees so every other component only ever handles lat/lon (spec
// §4.11). A zero UTMZone means the position was given directly in
// Latitude/Longitude, or is absent (HasFix stays false).
func resolveBeaconUTM(cfg *Config) error {
	if cfg.Beacon.UTMZone == 0 {
		return nil
	}
	hemi := geo.North
	if cfg.Beacon.UTMHemisphere == "S" || cfg.Beacon.UTMHemisphere == "s" {
		hemi = geo.South
	}
	pos, err := geo.UTMToLatLon(cfg.Beacon.UTMZone, hemi, cfg.Beacon.UTMEasting, cfg.Beacon.UTMNorthing)
	if err != nil {
		return err
	}
	cfg.Beacon.Latitude = pos.Latitude
	cfg.Beacon.Longitude = pos.Longitude
	cfg.Beacon.HasFix = true
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 14580
	}
	if cfg.Server.MaxClients == 0 {
		cfg.Server.MaxClients = 256
	}
	if cfg.Digipeater.MaxHops == 0 {
		cfg.Digipeater.MaxHops = 7
	}
	if cfg.Digipeater.DedupWindowMS == 0 {
		cfg.Digipeater.DedupWindowMS = int(30 * time.Second / time.Millisecond)
	}
	if cfg.Digipeater.FloodWindowMS == 0 {
		cfg.Digipeater.FloodWindowMS = int(30 * time.Second / time.Millisecond)
	}
	if cfg.RFGate.ISToRFType == "" {
		cfg.RFGate.ISToRFType = "message_only"
	}
	if cfg.APRSIS.Software == "" {
		cfg.APRSIS.Software = "aprsgw"
	}
	if cfg.APRSIS.Version == "" {
		cfg.APRSIS.Version = "1.0"
	}
	if cfg.Beacon.IntervalSeconds == 0 {
		cfg.Beacon.IntervalSeconds = 1800
	}
	if cfg.Beacon.Symbol == "" {
		cfg.Beacon.Symbol = "/#"
	}
}
