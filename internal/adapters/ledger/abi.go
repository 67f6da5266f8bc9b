package ledger

// registryABI is the subset of the score registry contract ABI used here.
const registryABI = `[
  {"type":"function","name":"storeScore","stateMutability":"nonpayable","inputs":[
    {"name":"walletAddress","type":"address"},{"name":"githubUsername","type":"string"},
    {"name":"score","type":"uint256"},{"name":"timestamp","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"storeFdcVerifiedScore","stateMutability":"nonpayable","inputs":[
    {"name":"walletAddress","type":"address"},{"name":"githubUsername","type":"string"},
    {"name":"score","type":"uint256"},{"name":"timestamp","type":"uint256"},
    {"name":"fdcAttestationId","type":"bytes32"}],"outputs":[]},
  {"type":"function","name":"getScore","stateMutability":"view","inputs":[
    {"name":"walletAddress","type":"address"},{"name":"githubUsername","type":"string"}],"outputs":[
    {"name":"score","type":"uint256"},{"name":"timestamp","type":"uint256"}]},
  {"type":"function","name":"getUserLatestScore","stateMutability":"view","inputs":[
    {"name":"walletAddress","type":"address"}],"outputs":[
    {"name":"githubUsername","type":"string"},{"name":"score","type":"uint256"},{"name":"timestamp","type":"uint256"}]},
  {"type":"function","name":"isFdcVerified","stateMutability":"view","inputs":[
    {"name":"walletAddress","type":"address"},{"name":"githubUsername","type":"string"}],"outputs":[
    {"name":"verified","type":"bool"},{"name":"attestationId","type":"bytes32"}]},
  {"type":"function","name":"getScoreAddressesCount","stateMutability":"view","inputs":[],"outputs":[
    {"name":"count","type":"uint256"}]},
  {"type":"function","name":"getScoreAddress","stateMutability":"view","inputs":[
    {"name":"index","type":"uint256"}],"outputs":[{"name":"walletAddress","type":"address"}]},
  {"type":"event","name":"ScoreStored","anonymous":false,"inputs":[
    {"name":"walletAddress","type":"address","indexed":true},{"name":"githubUsername","type":"string","indexed":true},
    {"name":"score","type":"uint256","indexed":false},{"name":"timestamp","type":"uint256","indexed":false},
    {"name":"fdcVerified","type":"bool","indexed":false},{"name":"fdcAttestationId","type":"bytes32","indexed":false}]},
  {"type":"event","name":"FdcScoreStored","anonymous":false,"inputs":[
    {"name":"walletAddress","type":"address","indexed":true},{"name":"githubUsername","type":"string","indexed":true},
    {"name":"score","type":"uint256","indexed":false},{"name":"fdcAttestationId","type":"bytes32","indexed":true}]}
]`
