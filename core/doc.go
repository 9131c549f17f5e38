// Package core contains the domain model shared by every other package:
// events, detection rules, alerts, incidents with their audit trail, and the
// derived incident packet. Types here carry no storage or transport logic.
package core
