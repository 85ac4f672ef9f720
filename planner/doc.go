/*
Package planner derives jerk-limited rest-to-rest motion profiles.

Given limits for jerk j, acceleration a and velocity v, and a distance d, a
move consists of phases of constant jerk +j, 0 or -j. Depending on which of
the limits are actually reached, the move takes one of four shapes:

	Unconstrained     neither a nor v is reached       +j -j +j
	VelocityLimited   v is reached and held            +j -j  0 -j +j
	AccelLimited      a is reached and held            +j  0 -j  0 +j
	FullyLimited      both a and v are reached         +j  0 -j  0 -j  0 +j

The shape follows from three candidate times for the initial jerk ramp: the
time to cover half the distance with a pure jerk ramp, the time to reach v,
and the time to reach a. The smallest of them wins; ties are broken in this
order. If the acceleration ramp is shortest, the time spent at constant
acceleration decides between AccelLimited and FullyLimited.

Usage

	prof, err := planner.Plan(1, 0.5, 0.3, 1)
	if err != nil {
		...
	}
	jerk, accel, vel, pos, err := profile.Evaluate(prof, scurve.Linspace(0, prof.Duration(), 101))

Plan returns an error wrapping scurve.ErrInvalidLimits for limits which are
not finite and positive, and an error wrapping ErrDegenerateMove if the
limits do not combine to a physical schedule.

BSD License

Copyright (c) Norbert Pillmayer

All rights reserved.

Please refer to the license file for more information.
*/
package planner
