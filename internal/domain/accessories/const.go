package accessories

// Home Assistant vocabulary used by the adapters. Only the subset the
// bridge translates is listed; unmapped hub values are ignored.

// Domains.
const (
	domainClimate     = "climate"
	domainCover       = "cover"
	domainFan         = "fan"
	domainLight       = "light"
	domainLock        = "lock"
	domainMediaPlayer = "media_player"
	domainScene       = "scene"
	domainScript      = "script"
	domainSensor      = "sensor"
	domainSwitch      = "switch"
	domainWaterHeater = "water_heater"
)

// States.
const (
	stateOn       = "on"
	stateOff      = "off"
	stateOpen     = "open"
	stateOpening  = "opening"
	stateClosed   = "closed"
	stateClosing  = "closing"
	stateLocked   = "locked"
	stateUnlocked = "unlocked"
	statePlaying  = "playing"
	statePaused   = "paused"
	stateStandby  = "standby"
	stateUnknown  = "unknown"
)

// Attributes.
const (
	attrDeviceClass       = "device_class"
	attrUnitOfMeasurement = "unit_of_measurement"
	attrCurrentTemp       = "current_temperature"
	attrTemperature       = "temperature"
	attrTargetTempHigh    = "target_temp_high"
	attrTargetTempLow     = "target_temp_low"
	attrTargetTempStep    = "target_temp_step"
	attrMinTemp           = "min_temp"
	attrMaxTemp           = "max_temp"
	attrHVACModes         = "hvac_modes"
	attrHVACAction        = "hvac_action"
	attrCurrentPosition   = "current_position"
	attrPosition          = "position"
	attrVolumeMuted       = "is_volume_muted"
	attrCanCancel         = "can_cancel"
	attrEntityID          = "entity_id"
	attrCode              = "code"
	attrHVACMode          = "hvac_mode"
	attrBrightness        = "brightness"
	attrBrightnessPct     = "brightness_pct"
	attrColorTemp         = "color_temp"
	attrMinMireds         = "min_mireds"
	attrMaxMireds         = "max_mireds"
	attrHSColor           = "hs_color"
	attrDirection         = "direction"
	attrOscillating       = "oscillating"
	attrPercentage        = "percentage"
)

// Services.
const (
	serviceTurnOn           = "turn_on"
	serviceTurnOff          = "turn_off"
	serviceLock             = "lock"
	serviceUnlock           = "unlock"
	serviceSetTemperature   = "set_temperature"
	serviceSetHVACMode      = "set_hvac_mode"
	serviceOpenCover        = "open_cover"
	serviceCloseCover       = "close_cover"
	serviceSetCoverPosition = "set_cover_position"
	serviceMediaPlay        = "media_play"
	serviceMediaPause       = "media_pause"
	serviceMediaStop        = "media_stop"
	serviceVolumeMute       = "volume_mute"
	serviceSetDirection     = "set_direction"
	serviceOscillate        = "oscillate"
	serviceSetPercentage    = "set_percentage"
)

// Fan directions.
const (
	directionForward = "forward"
	directionReverse = "reverse"
)

// HVAC modes and actions.
const (
	hvacOff      = "off"
	hvacHeat     = "heat"
	hvacCool     = "cool"
	hvacAuto     = "auto"
	hvacHeatCool = "heat_cool"
	hvacFanOnly  = "fan_only"

	actionOff     = "off"
	actionIdle    = "idle"
	actionHeating = "heating"
	actionCooling = "cooling"
)

// Device classes.
const (
	classGarage      = "garage"
	classTV          = "tv"
	classTemperature = "temperature"
	classHumidity    = "humidity"
	classIlluminance = "illuminance"
)

// Supported-feature bits, per domain.
const (
	climateSupportTargetTempRange = 2

	coverSupportOpen        = 1
	coverSupportClose       = 2
	coverSupportSetPosition = 4

	lightSupportBrightness = 1
	lightSupportColorTemp  = 2
	lightSupportColor      = 16

	fanSupportSetSpeed  = 1
	fanSupportOscillate = 2
	fanSupportDirection = 4

	mediaSupportPause      = 1
	mediaSupportVolumeMute = 8
	mediaSupportTurnOn     = 128
	mediaSupportTurnOff    = 256
	mediaSupportStop       = 4096
	mediaSupportPlay       = 16384
)

// EventChanged is published on the hub bus for every controller-initiated
// service call, so automations can distinguish bridge writes from local
// ones.
const EventChanged = "homekit_bridge_changed"
