package profiler

// compactDump is the smallest dump in the compact layout.
const compactDump = `---- Minecraft Profiler Results ----
// comment
Version: 1.0
Time span: 1234 ms
Tick span: 56 ticks
// comment
--- BEGIN PROFILE DUMP ---

[00] root(100/100) - 100.0%/100.0%
[01] |   child(40/40) - 40.0%/40.0%

--- END PROFILE DUMP ---

--- BEGIN COUNTER DUMP ---

--- END COUNTER DUMP ---

`

// vanillaDump is written exactly as the server writes it, so it must survive a
// parse/format round trip byte for byte.
const vanillaDump = `---- Minecraft Profiler Results ----
// Shiny numbers!

Version: 1.20.1
Time span: 10003 ms
Tick span: 201 ticks
// This is approximately 20.09 ticks per second. It should be 20 ticks per second

--- BEGIN PROFILE DUMP ---

[00] tick(201/1) - 100.00%/100.00%
[01] |   levels(201/1) - 92.50%/92.50%
[02] |   |   minecraft:overworld(201/1) - 80.00%/74.00%
[03] |   |   |   #getChunk 1200/5
[03] |   |   |   entities(201/1) - 60.00%/44.40%
[02] |   |   unspecified(201/1) - 20.00%/18.50%
[01] |   connection(201/1) - 7.50%/7.50%
[00] #tickCount 201/1
--- END PROFILE DUMP ---

--- BEGIN COUNTER DUMP ---

-- Counter: ticking --
[00] root total:5/12 average: 2/6
[01] |   block ticks total:3/3 average: 1/1
[01] |   fluids total:4/4 average: 2/2


-- Counter: blocks --
[00] root total:1/1 average: 1/1


--- END COUNTER DUMP ---

`

// legacyDump packs its counter trees back to back.
const legacyDump = `---- Minecraft Profiler Results ----
// Older harness output

Version: 1.16.5
Time span: 5000 ms
Tick span: 100 ticks
// This is approximately 20.00 ticks per second. It should be 20 ticks per second

--- BEGIN PROFILE DUMP ---

[00] tick(100/1) - 100.00%/100.00%
[01] |   levels(100/1) - 90.00%/90.00%
--- END PROFILE DUMP ---

--- BEGIN COUNTER DUMP ---

-- Counter: ticking --
[00] root total:5/12 average: 2/6
[01] |   block ticks total:3/3 average: 1/1
[01] |   fluids total:4/4 average: 2/2
-- Counter: blocks --
[00] root total:1/1 average: 1/1
--- END COUNTER DUMP ---

`
