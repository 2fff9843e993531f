package redis

// Scripts return 1 on success and 0 when the owning activity does not exist,
// so callers can map the result onto storage.ErrNotFound.
const (
	// addEntryScript atomically stores an entry and indexes it under its activity
	addEntryScript = `
local activity_key = KEYS[1]    -- {prefix}:activity:{activityID}
local entry_key = KEYS[2]       -- {prefix}:entry:{entryID}
local index_key = KEYS[3]       -- {prefix}:entries:{activityID}

local entry_id = ARGV[1]
local activity_id = ARGV[2]
local duration = ARGV[3]
local date = ARGV[4]
local start_time = ARGV[5]
local score = tonumber(ARGV[6])

if redis.call('EXISTS', activity_key) == 0 then
  return 0
end

if redis.call('EXISTS', entry_key) == 1 then
  return -1
end

redis.call('HSET', entry_key,
  'id', entry_id,
  'activity_id', activity_id,
  'duration', duration,
  'date', date,
  'start_time', start_time
)
redis.call('ZADD', index_key, score, entry_id)

return 1
`

	// upsertGoalScript atomically creates or updates the single goal of an activity
	upsertGoalScript = `
local activity_key = KEYS[1]    -- {prefix}:activity:{activityID}
local goal_key = KEYS[2]        -- {prefix}:goal:{activityID}
local goals_set = KEYS[3]       -- {prefix}:goals

local goal_id = ARGV[1]
local activity_id = ARGV[2]
local target_hours = ARGV[3]
local timeframe = ARGV[4]
local created_at = ARGV[5]

if redis.call('EXISTS', activity_key) == 0 then
  return 0
end

-- Keep identity of an existing goal
local existing_id = redis.call('HGET', goal_key, 'id')
if existing_id then
  goal_id = existing_id
  created_at = redis.call('HGET', goal_key, 'created_at')
end

redis.call('HSET', goal_key,
  'id', goal_id,
  'activity_id', activity_id,
  'target_hours', target_hours,
  'timeframe', timeframe,
  'created_at', created_at
)
redis.call('SADD', goals_set, activity_id)

return 1
`

	// deleteActivityScript atomically removes an activity, its entries and its goal
	deleteActivityScript = `
local activity_key = KEYS[1]    -- {prefix}:activity:{activityID}
local activities_set = KEYS[2]  -- {prefix}:activities
local index_key = KEYS[3]       -- {prefix}:entries:{activityID}
local goal_key = KEYS[4]        -- {prefix}:goal:{activityID}
local goals_set = KEYS[5]       -- {prefix}:goals

local activity_id = ARGV[1]
local entry_prefix = ARGV[2]    -- {prefix}:entry:

if redis.call('EXISTS', activity_key) == 0 then
  return 0
end

local entry_ids = redis.call('ZRANGE', index_key, 0, -1)
for _, entry_id in ipairs(entry_ids) do
  redis.call('DEL', entry_prefix .. entry_id)
end

redis.call('DEL', index_key)
redis.call('DEL', goal_key)
redis.call('SREM', goals_set, activity_id)
redis.call('ZREM', activities_set, activity_id)
redis.call('DEL', activity_key)

return 1
`
)
