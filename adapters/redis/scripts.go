package redis

import goredis "github.com/redis/go-redis/v9"

// Key layout
//
//	doc:<collection>:<id>     bson payload
//	docidx:<collection>:<id>  set of index keys the document is listed under
//	idx:<index>:<terms>       sorted set of ids, all with score 0; each term
//	                          is written as <len>:<term>
//
// Equal scores order members lexicographically, so ZRANGE 0 0 yields the
// lowest id. Scripts build document keys from prefixes, which ties the
// adapter to a single Redis node.

// createScript inserts a document and its index entries.
// KEYS: doc, docidx, index keys...  ARGV: payload, id, unique flags...
var createScript = goredis.NewScript(`
for i = 3, #KEYS do
  if ARGV[i] == "1" and redis.call("ZCARD", KEYS[i]) > 0 then
    return redis.error_reply("DUPLICATE")
  end
end
redis.call("SET", KEYS[1], ARGV[1])
for i = 3, #KEYS do
  redis.call("ZADD", KEYS[i], 0, ARGV[2])
  redis.call("SADD", KEYS[2], KEYS[i])
end
return 1
`)

// getScript resolves a target and returns {id, payload}.
// KEYS: index key (unused by ref)  ARGV: doc prefix, id or ""
var getScript = goredis.NewScript(`
local id = ARGV[2]
if id == "" then
  local ids = redis.call("ZRANGE", KEYS[1], 0, 0)
  if #ids == 0 then return false end
  id = ids[1]
end
local body = redis.call("GET", ARGV[1] .. id)
if not body then return false end
return {id, body}
`)

// deleteScript resolves a target, removes it with its index entries and
// returns {id, payload}.
// KEYS: index key (unused by ref)  ARGV: doc prefix, docidx prefix, id or ""
var deleteScript = goredis.NewScript(`
local id = ARGV[3]
if id == "" then
  local ids = redis.call("ZRANGE", KEYS[1], 0, 0)
  if #ids == 0 then return false end
  id = ids[1]
end
local key = ARGV[1] .. id
local body = redis.call("GET", key)
if not body then return false end
local idxKey = ARGV[2] .. id
for _, k in ipairs(redis.call("SMEMBERS", idxKey)) do
  redis.call("ZREM", k, id)
end
redis.call("DEL", key, idxKey)
return {id, body}
`)

// swapScript replaces a payload only if it still equals the expected one.
// Returns 1 on success, 0 when the document is gone, -1 when it changed.
// KEYS: doc, docidx, new index keys...  ARGV: expected, payload, id, unique flags...
var swapScript = goredis.NewScript(`
local cur = redis.call("GET", KEYS[1])
if not cur then return 0 end
if cur ~= ARGV[1] then return -1 end
for i = 3, #KEYS do
  if ARGV[i + 1] == "1" then
    for _, m in ipairs(redis.call("ZRANGE", KEYS[i], 0, 1)) do
      if m ~= ARGV[3] then return redis.error_reply("DUPLICATE") end
    end
  end
end
for _, k in ipairs(redis.call("SMEMBERS", KEYS[2])) do
  redis.call("ZREM", k, ARGV[3])
end
redis.call("DEL", KEYS[2])
redis.call("SET", KEYS[1], ARGV[2])
for i = 3, #KEYS do
  redis.call("ZADD", KEYS[i], 0, ARGV[3])
  redis.call("SADD", KEYS[2], KEYS[i])
end
return 1
`)

// deleteIfScript removes a document and its index entries only if the payload
// still equals the expected one. Returns 1 on delete, 0 when the document is
// gone, -1 when it changed.
// KEYS: doc, docidx  ARGV: expected, id
var deleteIfScript = goredis.NewScript(`
local cur = redis.call("GET", KEYS[1])
if not cur then return 0 end
if cur ~= ARGV[1] then return -1 end
for _, k in ipairs(redis.call("SMEMBERS", KEYS[2])) do
  redis.call("ZREM", k, ARGV[2])
end
redis.call("DEL", KEYS[1], KEYS[2])
return 1
`)
