package powerpack

import "github.com/cepro/eosbess/dispatch"

var configBlock = dispatch.MetricBlock{
	Name:         "Config",
	StartAddr:    100,
	NumRegisters: 47,
	Metrics: map[string]dispatch.Metric{

		"ProtocolVersion": {
			StartAddr:   100,
			DataType:    dispatch.Int16Type,
			ScalingFunc: nil,
		},
		"FirmwareVersion": {
			StartAddr:   102,
			DataType:    dispatch.String32Type,
			ScalingFunc: nil,
		},
		"Serial": {
			StartAddr:   118,
			DataType:    dispatch.String32Type,
			ScalingFunc: nil,
		},
		"NumBattMeters": {
			StartAddr:   134,
			DataType:    dispatch.Int16Type,
			ScalingFunc: nil,
		},
		"NumSiteMeters": {
			StartAddr:   135,
			DataType:    dispatch.Int16Type,
			ScalingFunc: nil,
		},
		"MaxChargePower": {
			StartAddr:   139,
			DataType:    dispatch.Int32Type,
			ScalingFunc: nil,
		},
		"MaxDischargePower": {
			StartAddr:   141,
			DataType:    dispatch.Int32Type,
			ScalingFunc: nil,
		},
		"Energy": {
			StartAddr:   145,
			DataType:    dispatch.Int32Type,
			ScalingFunc: nil,
		},
	},
}

var realPowerCommandBlock = dispatch.MetricBlock{
	Name:         "RealPowerCommand",
	StartAddr:    1000,
	NumRegisters: 3,
	Metrics: map[string]dispatch.Metric{
		"Mode": {
			StartAddr:   1000,
			DataType:    dispatch.Uint16Type,
			ScalingFunc: nil,
		},
		"AlwaysActive": {
			StartAddr:   1001,
			DataType:    dispatch.Uint16Type,
			ScalingFunc: nil,
		},
		"PeakPowerMode": {
			StartAddr:   1002,
			DataType:    dispatch.Uint16Type,
			ScalingFunc: nil,
		},
	},
}

var statusBlock = dispatch.MetricBlock{
	Name:         "Status",
	StartAddr:    200,
	NumRegisters: 34,
	Metrics: map[string]dispatch.Metric{

		"CommandSource": {
			StartAddr:   200,
			DataType:    dispatch.Uint16Type,
			ScalingFunc: nil,
		},
		"BatteryTargetP": {
			StartAddr:   201,
			DataType:    dispatch.Int32Type,
			ScalingFunc: nil,
		},
		"NominalEnergy": {
			StartAddr:   207,
			DataType:    dispatch.Int32Type,
			ScalingFunc: nil,
		},
		"AvailableBlocks": {
			StartAddr:   218,
			DataType:    dispatch.Uint16Type,
			ScalingFunc: nil,
		},
	},
}

var directRealPowerCommandBlock = dispatch.MetricBlock{
	Name:         "DirectRealPowerCommand",
	StartAddr:    1020,
	NumRegisters: 4,
	Metrics: map[string]dispatch.Metric{
		"Power": {
			StartAddr:   1020,
			DataType:    dispatch.Int32Type,
			ScalingFunc: nil,
		},
		"Heartbeat": {
			StartAddr:   1022,
			DataType:    dispatch.Uint16Type,
			ScalingFunc: nil,
		},
		"Timeout": {
			StartAddr:   1023,
			DataType:    dispatch.Uint16Type,
			ScalingFunc: nil,
		},
	},
}
