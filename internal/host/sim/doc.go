// Package sim is a simulated game client used by the standalone binary.
//
// A player wanders around a world at walking speed, screens open and
// close through chat commands, and the minimap's waypoint sets live in
// SQLite. Like a real client, Sim is owned by its tick thread: every Host
// method and Step must be called from that goroutine. Only the chat log
// and Notify are safe from other goroutines.
//
// Chat commands understood by SendChatCommand:
//
//	tp <x> <y> <z>                teleport
//	world <namespace:path>        move to another world
//	leave | join                  leave or rejoin the world
//	screen [title]                open a screen, or close it without a title
//	walk on|off                   start or stop wandering
//	waypoint <set> <name>         add a waypoint at the player's position
package sim
