package physics

const (
	StopLookahead      = 300.0 // units; stops further away do not limit speed
	SlowdownBand       = 250.0 // units; limit decays linearly inside this band
	CrawlSpeed         = 15.0
	FinalCrawlSpeed    = 2.0
	FinalCrawlDistance = 5.0
	OverrideBrakeMult  = 1.5
	GravityAccel       = 3.0  // km/h per second while coasting downhill
	GravityOverspeed   = 1.3  // effective max multiplier on gravity terrain
	FrictionDecel      = 5.0  // km/h per second toward creep
	CreepSpeed         = 5.0  // idle crawl
	BrakeHeatRate      = 15.0 // per second while braking
	BrakeCoolRate      = 8.0  // per second otherwise
	BrakeFadeThreshold = 70.0
	BrakeMaxTemp       = 100.0
	BrakeMinEfficiency = 0.2
	SpeedPenaltyFrom   = 80.0
	SpeedPenaltyPerKmh = 0.01
	AccelFuelPenalty   = 1.2
	FuelFull           = 100.0
)
